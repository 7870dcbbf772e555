// Package ai implements the LLM intent classifier (external.Classifier):
// turning a Hinglish transcript plus formatted conversation context into one
// or more structured intents. Grounded on the teacher's InterpretEvent
// (internal/ai/agent.go in the original accounting agent): same Responses API
// call shape — a single structured-output request with a strict JSON schema,
// a hard timeout, and OpenAI error unwrapping — generalized from a
// double-entry journal-entry proposal to this domain's closed set of ~27
// intents. The teacher's agentic read-tool loop (InterpretDomainAction) has
// no call site here: intent classification is one-shot, not a multi-step
// tool-calling conversation, so this package keeps only the structured-output
// path.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared/constant"

	"dukaan-agent/internal/external"
)

// knownIntents is the closed set of intent names the dispatcher recognises.
// The classifier is instructed to pick from this list; anything else becomes
// UNKNOWN.
var knownIntents = []string{
	"TOTAL_PENDING_AMOUNT", "LIST_CUSTOMER_BALANCES", "CHECK_BALANCE",
	"CREATE_INVOICE", "CONFIRM_INVOICE", "SHOW_PENDING_INVOICE", "TOGGLE_GST",
	"PROVIDE_EMAIL", "SEND_INVOICE", "CREATE_REMINDER", "RECORD_PAYMENT",
	"ADD_CREDIT", "CHECK_STOCK", "CANCEL_INVOICE", "CANCEL_REMINDER",
	"LIST_REMINDERS", "CREATE_CUSTOMER", "MODIFY_REMINDER", "DAILY_SUMMARY",
	"UPDATE_CUSTOMER", "UPDATE_CUSTOMER_PHONE", "GET_CUSTOMER_INFO",
	"DELETE_CUSTOMER_DATA", "SWITCH_LANGUAGE", "START_RECORDING",
	"STOP_RECORDING", "UNKNOWN",
}

// Classifier implements external.Classifier against the OpenAI Responses API.
type Classifier struct {
	client *openai.Client
	model  string
}

// NewClassifier constructs a Classifier. model defaults to GPT-4o if empty.
func NewClassifier(apiKey, model string) *Classifier {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(3),
	)
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	return &Classifier{client: &client, model: model}
}

var _ external.Classifier = (*Classifier)(nil)

// Classify turns transcript + contextPrompt into one or more intents. A
// single utterance can name more than one task ("Rahul ka bill banao aur
// Bharat ka balance batao"); the model is instructed to emit one array entry
// per task it recognises, in speaking order.
func (c *Classifier) Classify(ctx context.Context, transcript, contextPrompt string) ([]external.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(`You are the intent classifier for a Hinglish-speaking shopkeeper's voice back-office assistant.

Recognised intents (pick only from this list; use UNKNOWN if nothing fits):
%s

A single utterance may contain more than one task — emit one array entry per task, in the order the shopkeeper spoke them.

For CREATE_INVOICE, extract each spoken line item into "items" (product name, quantity, optional unit price override).
For every other intent, put extracted values into "entities" using these keys where relevant: customer, name, customerRef, amount, phone, email, nickname, landmark, gstin, mode, datetime, language, confirmation, operatorRole, product, withGst.
Leave a key out of "entities" if the utterance didn't mention it — do not guess values.

Conversation context:
%s

Transcript: %s`, formatIntentList(knownIntents), contextPrompt, transcript)

	params := responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "intent_batch",
					Strict:      openai.Bool(true),
					Schema:      intentBatchSchema(),
					Description: openai.String("One or more recognised intents extracted from one utterance"),
				},
			},
		},
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			log.Printf("OpenAI API error %d: %s", apierr.StatusCode, apierr.DumpResponse(true))
		}
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var batch intentBatch
	if err := json.Unmarshal([]byte(content), &batch); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	if len(batch.Intents) == 0 {
		return []external.Intent{{Name: "UNKNOWN"}}, nil
	}

	out := make([]external.Intent, len(batch.Intents))
	for i, in := range batch.Intents {
		out[i] = in.toExternal()
	}
	return out, nil
}

func formatIntentList(names []string) string {
	s := ""
	for _, n := range names {
		s += "- " + n + "\n"
	}
	return s
}

// intentBatch and intentPayload mirror the strict JSON schema below: every
// optional entity gets its own nullable field rather than a free-form map,
// since OpenAI's strict structured-output mode forbids additionalProperties
// on an arbitrary-keyed object.
type intentBatch struct {
	Intents []intentPayload `json:"intents"`
}

type intentPayload struct {
	Name       string        `json:"name"`
	Confidence float64       `json:"confidence"`
	Entities   entityPayload `json:"entities"`
	Items      []itemPayload `json:"items"`
}

type entityPayload struct {
	Customer     *string `json:"customer"`
	Name         *string `json:"name"`
	CustomerRef  *string `json:"customerRef"`
	Amount       *string `json:"amount"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	Nickname     *string `json:"nickname"`
	Landmark     *string `json:"landmark"`
	GSTIN        *string `json:"gstin"`
	Mode         *string `json:"mode"`
	Datetime     *string `json:"datetime"`
	Language     *string `json:"language"`
	Confirmation *string `json:"confirmation"`
	OperatorRole *string `json:"operatorRole"`
	Product      *string `json:"product"`
	WithGST      *string `json:"withGst"`
}

type itemPayload struct {
	Product   string  `json:"product"`
	Quantity  string  `json:"quantity"`
	UnitPrice *string `json:"unitPrice"`
}

func (p intentPayload) toExternal() external.Intent {
	entities := map[string]string{}
	add := func(key string, v *string) {
		if v != nil && *v != "" {
			entities[key] = *v
		}
	}
	e := p.Entities
	add("customer", e.Customer)
	add("name", e.Name)
	add("customerRef", e.CustomerRef)
	add("amount", e.Amount)
	add("phone", e.Phone)
	add("email", e.Email)
	add("nickname", e.Nickname)
	add("landmark", e.Landmark)
	add("gstin", e.GSTIN)
	add("mode", e.Mode)
	add("datetime", e.Datetime)
	add("language", e.Language)
	add("confirmation", e.Confirmation)
	add("operatorRole", e.OperatorRole)
	add("product", e.Product)
	add("withGst", e.WithGST)

	items := make([]external.Item, len(p.Items))
	for i, it := range p.Items {
		unitPrice := ""
		if it.UnitPrice != nil {
			unitPrice = *it.UnitPrice
		}
		items[i] = external.Item{Product: it.Product, Quantity: it.Quantity, UnitPrice: unitPrice}
	}

	name := p.Name
	if !validIntent(name) {
		name = "UNKNOWN"
	}
	return external.Intent{Name: name, Entities: entities, Items: items, Confidence: p.Confidence}
}

func validIntent(name string) bool {
	for _, n := range knownIntents {
		if n == name {
			return true
		}
	}
	return false
}

// intentBatchSchema is the strict OpenAI JSON schema for intentBatch: every
// property is listed in "required" and nullable fields use anyOf with a null
// branch, matching the teacher's generateSchema/proposalSchema convention.
func intentBatchSchema() map[string]any {
	nullableString := func(desc string) map[string]any {
		return map[string]any{
			"description": desc,
			"anyOf": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "null"},
			},
		}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"intents"},
		"properties": map[string]any{
			"intents": map[string]any{
				"type":        "array",
				"description": "One entry per task recognised in the utterance, in speaking order.",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"name", "confidence", "entities", "items"},
					"properties": map[string]any{
						"name": map[string]any{
							"type":        "string",
							"description": "One of the recognised intent names, or UNKNOWN.",
						},
						"confidence": map[string]any{
							"type":        "number",
							"description": "Confidence score between 0.0 and 1.0.",
						},
						"entities": map[string]any{
							"type":                 "object",
							"additionalProperties": false,
							"required": []string{
								"customer", "name", "customerRef", "amount", "phone", "email",
								"nickname", "landmark", "gstin", "mode", "datetime", "language",
								"confirmation", "operatorRole", "product", "withGst",
							},
							"properties": map[string]any{
								"customer":     nullableString("Customer name or reference as spoken."),
								"name":         nullableString("Name for a new customer, if creating one."),
								"customerRef":  nullableString("\"active\" if referring to the currently active customer."),
								"amount":       nullableString("Monetary amount as a plain decimal string."),
								"phone":        nullableString("Phone number as spoken."),
								"email":        nullableString("Email address, must contain @."),
								"nickname":     nullableString("Customer nickname."),
								"landmark":     nullableString("Landmark near the customer."),
								"gstin":        nullableString("GST identification number."),
								"mode":         nullableString("Payment mode: cash or upi."),
								"datetime":     nullableString("ISO-ish date or datetime for a reminder."),
								"language":     nullableString("Language code, e.g. hi, mr, gu."),
								"confirmation": nullableString("Spoken 6-digit confirmation code."),
								"operatorRole": nullableString("\"admin\" if the speaker claimed admin rights."),
								"product":      nullableString("Product name for a stock check."),
								"withGst":      nullableString("\"true\" or \"false\" if GST inclusion was mentioned."),
							},
						},
						"items": map[string]any{
							"type":        "array",
							"description": "Line items for CREATE_INVOICE; empty for every other intent.",
							"items": map[string]any{
								"type":                 "object",
								"additionalProperties": false,
								"required":             []string{"product", "quantity", "unitPrice"},
								"properties": map[string]any{
									"product":  map[string]any{"type": "string", "description": "Product name as spoken."},
									"quantity": map[string]any{"type": "string", "description": "Quantity as a plain decimal string."},
									"unitPrice": map[string]any{
										"description": "Optional price override as a decimal string.",
										"anyOf": []any{
											map[string]any{"type": "string"},
											map[string]any{"type": "null"},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}
