package external

import "context"

// Responder generates a natural-language Hinglish reply for an intent the
// response templater has no fast-path template for. Mirrors the teacher's
// AgentService.InterpretEvent call shape (transcript/context in, text out),
// but here it renders an already-executed result instead of choosing a tool.
type Responder interface {
	Respond(ctx context.Context, intent string, data map[string]any) (string, error)
}
