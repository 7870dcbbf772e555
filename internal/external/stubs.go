package external

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LoggingSTT is a no-op SpeechToText that logs what it would have done. It
// backs cmd/server, where only voice:final frames carry usable text.
type LoggingSTT struct {
	log      zerolog.Logger
	provider string
}

func NewLoggingSTT(log zerolog.Logger, provider string) *LoggingSTT {
	return &LoggingSTT{log: log, provider: provider}
}

func (s *LoggingSTT) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	s.log.Warn().Int("bytes", len(audio)).Str("format", format).Msg("speech-to-text not configured, dropping audio frame")
	return "", nil
}

func (s *LoggingSTT) Provider() string { return s.provider }

// LoggingTTS is a no-op TextToSpeech used the same way as LoggingSTT.
type LoggingTTS struct {
	log      zerolog.Logger
	provider string
}

func NewLoggingTTS(log zerolog.Logger, provider string) *LoggingTTS {
	return &LoggingTTS{log: log, provider: provider}
}

func (t *LoggingTTS) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	t.log.Warn().Str("text", text).Msg("text-to-speech not configured, skipping synthesis")
	return nil, "", nil
}

func (t *LoggingTTS) Provider() string { return t.provider }

// LoggingWhatsApp logs outbound WhatsApp sends instead of calling the Graph API.
type LoggingWhatsApp struct{ log zerolog.Logger }

func NewLoggingWhatsApp(log zerolog.Logger) *LoggingWhatsApp { return &LoggingWhatsApp{log: log} }

func (w *LoggingWhatsApp) SendMessage(ctx context.Context, toPhone, body string) error {
	w.log.Info().Str("to", toPhone).Str("body", body).Msg("whatsapp message (not sent, no credentials configured)")
	return nil
}

func (w *LoggingWhatsApp) SendDocument(ctx context.Context, toPhone, caption, documentURL string) error {
	w.log.Info().Str("to", toPhone).Str("caption", caption).Str("document", documentURL).Msg("whatsapp document (not sent, no credentials configured)")
	return nil
}

// LoggingEmail logs outbound mail instead of calling an SMTP relay.
type LoggingEmail struct{ log zerolog.Logger }

func NewLoggingEmail(log zerolog.Logger) *LoggingEmail { return &LoggingEmail{log: log} }

func (e *LoggingEmail) Send(ctx context.Context, to, subject, body string) error {
	e.log.Info().Str("to", to).Str("subject", subject).Msg("email (not sent, no SMTP credentials configured)")
	return nil
}

// InMemoryJobQueue is a process-local stand-in for the external scheduled-job
// queue, used by cmd/repl and cmd/server. It does not actually fire jobs at runAt;
// it only tracks enqueue/cancel so reminder bookkeeping can be exercised.
type InMemoryJobQueue struct {
	log zerolog.Logger
}

func NewInMemoryJobQueue(log zerolog.Logger) *InMemoryJobQueue { return &InMemoryJobQueue{log: log} }

func (q *InMemoryJobQueue) Enqueue(ctx context.Context, runAt time.Time, payload map[string]string) (string, error) {
	jobID := uuid.NewString()
	q.log.Info().Str("job_id", jobID).Time("run_at", runAt).Msg("reminder job enqueued (in-memory stub)")
	return jobID, nil
}

func (q *InMemoryJobQueue) Cancel(ctx context.Context, jobID string) error {
	q.log.Info().Str("job_id", jobID).Msg("reminder job cancelled (in-memory stub)")
	return nil
}

// InMemoryObjectStore is a process-local stand-in for the external object
// store, used by cmd/repl and cmd/server in place of an S3-compatible bucket.
type InMemoryObjectStore struct {
	log  zerolog.Logger
	data map[string][]byte
}

func NewInMemoryObjectStore(log zerolog.Logger) *InMemoryObjectStore {
	return &InMemoryObjectStore{log: log, data: make(map[string][]byte)}
}

func (o *InMemoryObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	o.data[key] = data
	url := "memory://" + key
	o.log.Info().Str("key", key).Str("content_type", contentType).Int("bytes", len(data)).Msg("object stored (in-memory stub)")
	return url, nil
}

func (o *InMemoryObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	return o.data[key], nil
}

// LoggingResponder is a no-op Responder used when no LLM fallback is wired;
// it logs the miss so an operator can see which intents never matched the
// template set, then returns a generic acknowledgement.
type LoggingResponder struct {
	log zerolog.Logger
}

func NewLoggingResponder(log zerolog.Logger) *LoggingResponder { return &LoggingResponder{log: log} }

func (r *LoggingResponder) Respond(ctx context.Context, intent string, data map[string]any) (string, error) {
	r.log.Warn().Str("intent", intent).Msg("no fast-path template and no LLM responder configured")
	return "Ho gaya.", nil
}
