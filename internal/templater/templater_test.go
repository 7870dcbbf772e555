package templater

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dukaan-agent/internal/apperr"
	"dukaan-agent/internal/dispatch"
)

func TestRender_FastPathSuccess(t *testing.T) {
	tpl := New(nil)
	result := dispatch.Result{Success: true, Data: map[string]any{"name": "Rahul", "balance": "450.00"}}
	text := tpl.Render(context.Background(), "CHECK_BALANCE", result)
	assert.Equal(t, "Rahul ka balance ₹450.00 hai.", text)
}

func TestRender_ErrorUsesMessageOverPhrasebook(t *testing.T) {
	tpl := New(nil)
	result := dispatch.Result{Success: false, Error: apperr.ValidationFailed, Message: "Custom message"}
	require.Equal(t, "Custom message", tpl.Render(context.Background(), "CHECK_BALANCE", result))
}

func TestRender_ErrorFallsBackToPhrasebook(t *testing.T) {
	tpl := New(nil)
	result := dispatch.Result{Success: false, Error: apperr.CustomerNotFound}
	assert.Equal(t, apperr.Message(apperr.CustomerNotFound), tpl.Render(context.Background(), "CHECK_BALANCE", result))
}

type stubResponder struct {
	text string
	err  error
}

func (s stubResponder) Respond(ctx context.Context, intent string, data map[string]any) (string, error) {
	return s.text, s.err
}

func TestRender_UnknownIntentUsesResponder(t *testing.T) {
	tpl := New(stubResponder{text: "Kuch aur bataiye."})
	result := dispatch.Result{Success: true, Data: map[string]any{}}
	assert.Equal(t, "Kuch aur bataiye.", tpl.Render(context.Background(), "SOME_NEW_INTENT", result))
}

func TestRender_UnknownIntentNoResponderFallsBackToMessage(t *testing.T) {
	tpl := New(nil)
	result := dispatch.Result{Success: true, Message: "Done.", Data: map[string]any{}}
	assert.Equal(t, "Done.", tpl.Render(context.Background(), "SOME_NEW_INTENT", result))
}

func TestRender_CreateInvoiceTemplate(t *testing.T) {
	tpl := New(nil)
	result := dispatch.Result{Success: true, Data: map[string]any{"customer": "Bharat", "grandTotal": "1200.00"}}
	assert.Equal(t, "Bharat ke liye bill taiyar hai, total ₹1200.00. Confirm karein?",
		tpl.Render(context.Background(), "CREATE_INVOICE", result))
}
