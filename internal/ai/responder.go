package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"dukaan-agent/internal/external"
)

// Responder implements external.Responder: a plain-text Responses API call
// used only as a fallback for intents the response templater has no
// fast-path template for. Same client construction as Classifier; no
// structured-output schema since the output here is spoken text, not data.
type Responder struct {
	client *openai.Client
	model  string
}

// NewResponder constructs a Responder. model defaults to GPT-4o if empty.
func NewResponder(apiKey, model string) *Responder {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(3),
	)
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	return &Responder{client: &client, model: model}
}

var _ external.Responder = (*Responder)(nil)

// Respond renders a short Hinglish confirmation for an already-executed
// intent. data is the dispatcher's result payload, rendered inline so the
// model has the concrete numbers/names to speak back.
func (r *Responder) Respond(ctx context.Context, intent string, data map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(`You are a shopkeeper's voice back-office assistant. Speak back the result of the
"%s" action in one short, natural Hinglish sentence. Use the given data, don't invent
numbers, and don't mention JSON, field names, or that you are an AI.

Result data: %v`, intent, data)

	params := responses.ResponseNewParams{
		Model: r.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	}

	resp, err := r.client.Responses.New(ctx, params)
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			log.Printf("OpenAI API error %d: %s", apierr.StatusCode, apierr.DumpResponse(true))
		}
		return "", fmt.Errorf("openai responses error: %w", err)
	}

	text := resp.OutputText()
	if text == "" {
		return "", fmt.Errorf("empty response content")
	}
	return text, nil
}
