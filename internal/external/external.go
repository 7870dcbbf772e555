// Package external declares narrow interfaces for every collaborator that
// lives outside this process: speech-to-text, text-to-speech, WhatsApp,
// email, object storage, and the scheduled-job queue. Grounded on the
// teacher's AgentService interface (internal/ai/agent.go), which the teacher
// itself swaps for a stub in its verification command — the same narrow,
// dependency-injected-interface idiom, applied to every I/O boundary instead
// of just the LLM.
package external

import (
	"context"
	"time"
)

// SpeechToText streams audio frames and emits transcripts.
type SpeechToText interface {
	// Transcribe consumes one utterance's audio and returns the final transcript.
	Transcribe(ctx context.Context, audio []byte, format string) (text string, err error)
	Provider() string
}

// TextToSpeech renders a response string to audio.
type TextToSpeech interface {
	Synthesize(ctx context.Context, text string) (audio []byte, format string, err error)
	Provider() string
}

// WhatsApp sends an invoice or reminder notification over WhatsApp.
type WhatsApp interface {
	SendMessage(ctx context.Context, toPhone, body string) error
	SendDocument(ctx context.Context, toPhone, caption, documentURL string) error
}

// Email sends transactional mail: invoices, delete-confirmation OTPs, daily summaries.
type Email interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ObjectStore persists generated invoice PDFs and archived audio.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// JobQueue schedules and cancels future-dated work (payment reminders).
type JobQueue interface {
	Enqueue(ctx context.Context, runAt time.Time, payload map[string]string) (jobID string, err error)
	Cancel(ctx context.Context, jobID string) error
}

// Classifier turns a transcript plus formatted conversation context into one
// or more structured intents, mirroring the teacher's AgentService.InterpretEvent.
// A single utterance can name more than one task ("Rahul ka bill banao aur
// Bharat ka balance batao"); the classifier is responsible for splitting it,
// which is why it returns a slice rather than one Intent.
type Classifier interface {
	Classify(ctx context.Context, transcript, contextPrompt string) ([]Intent, error)
}

// Intent is one of the classifier's structured outputs: one of the ~27
// recognised intent kinds plus whatever entities it extracted from the
// utterance, and the line items for CREATE_INVOICE-shaped intents.
type Intent struct {
	Name       string
	Entities   map[string]string
	Items      []Item
	Confidence float64
}

// Item is one spoken line item ("do Maggi packet"), carried on an Intent
// before dispatch.Dispatcher's own ItemEntity takes over.
type Item struct {
	Product   string
	Quantity  string
	UnitPrice string
}
