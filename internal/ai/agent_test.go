package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidIntent(t *testing.T) {
	assert.True(t, validIntent("CREATE_INVOICE"))
	assert.True(t, validIntent("UNKNOWN"))
	assert.False(t, validIntent("DELETE_EVERYTHING"))
}

func TestIntentPayloadToExternal_DropsEmptyEntities(t *testing.T) {
	amount := "500"
	empty := ""
	p := intentPayload{
		Name:       "RECORD_PAYMENT",
		Confidence: 0.92,
		Entities: entityPayload{
			Amount:   &amount,
			Customer: &empty,
		},
	}

	got := p.toExternal()
	assert.Equal(t, "RECORD_PAYMENT", got.Name)
	assert.Equal(t, "500", got.Entities["amount"])
	_, hasCustomer := got.Entities["customer"]
	assert.False(t, hasCustomer, "blank entity values should be omitted, not stored as empty strings")
}

func TestIntentPayloadToExternal_UnknownNameFallsBack(t *testing.T) {
	p := intentPayload{Name: "DO_SOMETHING_WEIRD", Confidence: 0.5}
	got := p.toExternal()
	assert.Equal(t, "UNKNOWN", got.Name)
}

func TestIntentPayloadToExternal_CarriesLineItems(t *testing.T) {
	price := "25"
	p := intentPayload{
		Name: "CREATE_INVOICE",
		Items: []itemPayload{
			{Product: "Maggi packet", Quantity: "2", UnitPrice: &price},
			{Product: "Sugar 1kg", Quantity: "1"},
		},
	}

	got := p.toExternal()
	assert.Len(t, got.Items, 2)
	assert.Equal(t, "25", got.Items[0].UnitPrice)
	assert.Equal(t, "", got.Items[1].UnitPrice)
}

func TestIntentBatchSchema_RequiresEveryProperty(t *testing.T) {
	schema := intentBatchSchema()
	assert.Equal(t, false, schema["additionalProperties"])

	props := schema["properties"].(map[string]any)
	items := props["intents"].(map[string]any)["items"].(map[string]any)
	itemProps := items["properties"].(map[string]any)
	required := items["required"].([]string)
	assert.ElementsMatch(t, []string{"name", "confidence", "entities", "items"}, required)
	assert.Len(t, itemProps, len(required))
}

func TestFormatIntentList(t *testing.T) {
	out := formatIntentList([]string{"A", "B"})
	assert.Equal(t, "- A\n- B\n", out)
}
