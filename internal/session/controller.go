package session

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"dukaan-agent/internal/conv"
	"dukaan-agent/internal/dispatch"
	"dukaan-agent/internal/external"
	"dukaan-agent/internal/metrics"
	"dukaan-agent/internal/templater"
)

// maxConcurrentTasks bounds the worker pool fanned out over one utterance's
// tasks; the spec only asks for per-connection concurrency, not a global cap,
// so this is per-HandleConnection rather than package-level.
const maxConcurrentTasks = 4

// Controller owns the IDLE->LISTENING->TRANSCRIBING->CLASSIFYING->EXECUTING->
// RESPONDING lifecycle for every connection handed to HandleConnection, and
// the worker pool that executes a multi-task utterance's dispatch calls
// concurrently. task:queued events keep the order of the intents; the events
// sent while tasks run follow the order of execution.
type Controller struct {
	Dispatcher *dispatch.Dispatcher
	ConvStore  *conv.Store
	Templater  *templater.Templater

	STT        external.SpeechToText
	TTS        external.TextToSpeech
	Classifier external.Classifier

	Log zerolog.Logger
}

// connState tracks the one piece of mutable, per-connection state the
// controller owns directly: the lifecycle stage and the in-flight audio
// buffer. Everything else (conversation memory, drafts) lives in conv.Store.
type connState struct {
	mu       sync.Mutex
	state    State
	audioBuf []byte
}

func (c *connState) set(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// HandleConnection runs the read loop for one streaming connection until the
// client closes it or ctx is cancelled. It never returns a raw dispatch or
// classifier error to the caller: every failure becomes an `error` event on
// the connection, and the loop continues listening for the next frame.
func (c *Controller) HandleConnection(ctx context.Context, shopID, sessionID string, conn Conn) {
	cs := &connState{state: StateIdle}
	metrics.VoiceSessionsTotal.WithLabelValues("opened").Inc()
	defer func() {
		metrics.VoiceSessionsTotal.WithLabelValues("closed").Inc()
		_ = conn.Close()
	}()

	for {
		frame, err := conn.ReadFrame(ctx)
		if err != nil {
			c.Log.Info().Str("session_id", sessionID).Err(err).Msg("connection closed")
			return
		}

		switch frame.Kind {
		case FrameVoiceStart:
			cs.set(StateListening)
			cs.mu.Lock()
			cs.audioBuf = nil
			cs.mu.Unlock()
			_ = conn.Send(ctx, Event{Kind: EventVoiceStart})

		case FrameAudio:
			cs.mu.Lock()
			if cs.state == StateListening {
				cs.audioBuf = append(cs.audioBuf, frame.Audio...)
			}
			cs.mu.Unlock()

		case FrameVoiceStop, FrameVoiceFinal:
			c.handleUtterance(ctx, cs, shopID, sessionID, frame, conn)

		case FrameRecordingStart:
			c.runTasks(ctx, cs, shopID, sessionID, []external.Intent{{Name: "START_RECORDING"}}, conn)

		case FrameRecordingStop:
			c.runTasks(ctx, cs, shopID, sessionID, []external.Intent{{Name: "STOP_RECORDING"}}, conn)

		default:
			_ = conn.Send(ctx, Event{Kind: EventError, Data: map[string]any{"message": "unknown frame kind: " + frame.Kind}})
		}
	}
}

// handleUtterance runs one full TRANSCRIBING -> CLASSIFYING -> EXECUTING ->
// RESPONDING cycle for a voice:stop/voice:final frame.
func (c *Controller) handleUtterance(ctx context.Context, cs *connState, shopID, sessionID string, frame Frame, conn Conn) {
	cs.set(StateTranscribing)

	text := strings.TrimSpace(frame.Text)
	if text == "" {
		cs.mu.Lock()
		audio := cs.audioBuf
		cs.audioBuf = nil
		cs.mu.Unlock()
		if len(audio) > 0 && c.STT != nil {
			transcribed, err := c.STT.Transcribe(ctx, audio, frame.Format)
			if err != nil {
				c.Log.Error().Err(err).Msg("transcription failed")
				_ = conn.Send(ctx, Event{Kind: EventError, Data: map[string]any{"message": "speech-to-text failed"}})
				cs.set(StateIdle)
				return
			}
			text = transcribed
		}
	}
	_ = conn.Send(ctx, Event{Kind: EventVoiceTranscript, Text: text})
	if text == "" {
		cs.set(StateIdle)
		return
	}

	cs.set(StateClassifying)
	contextPrompt, err := c.ConvStore.FormatContextPrompt(ctx, shopID, sessionID, 10)
	if err != nil {
		c.Log.Error().Err(err).Msg("failed to format conversation context")
	}

	var intents []external.Intent
	if c.Classifier != nil {
		intents, err = c.Classifier.Classify(ctx, text, contextPrompt)
	}
	if err != nil || len(intents) == 0 {
		if err != nil {
			c.Log.Error().Err(err).Msg("classification failed or timed out")
		}
		intents = []external.Intent{{Name: "UNKNOWN"}}
	}

	entities := map[string]string{}
	if len(intents) > 0 {
		entities = intents[0].Entities
	}
	if err := c.ConvStore.AppendUserMessage(ctx, sessionID, text, intents[0].Name, entities); err != nil {
		c.Log.Error().Err(err).Msg("failed to append user message")
	}

	names := make([]string, len(intents))
	for i, in := range intents {
		names[i] = in.Name
	}
	_ = conn.Send(ctx, Event{Kind: EventVoiceIntent, Data: map[string]any{"intents": names}})

	cs.set(StateExecuting)
	c.runTasks(ctx, cs, shopID, sessionID, intents, conn)
	cs.set(StateIdle)
}

// runTasks dispatches every intent concurrently (bounded by
// maxConcurrentTasks), emits task:queued/started/completed/failed events for
// each, then composes and speaks the combined response. All task:queued events
// go out first, in the order of the intents slice; task:started/completed/failed
// are sent by the worker goroutines as each task runs, so their order follows
// execution. The combined response joins the per-task texts in slice order.
func (c *Controller) runTasks(ctx context.Context, cs *connState, shopID, sessionID string, intents []external.Intent, conn Conn) {
	responses := make([]string, len(intents))

	for i, intent := range intents {
		_ = conn.Send(ctx, Event{Kind: EventTaskQueued, Data: map[string]any{"index": i, "intent": intent.Name}})
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentTasks)
	for i, intent := range intents {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, intent external.Intent) {
			defer wg.Done()
			defer func() { <-sem }()
			c.runOne(ctx, conn, shopID, sessionID, i, intent, responses)
		}(i, intent)
	}
	wg.Wait()

	cs.set(StateResponding)
	text := joinNonEmpty(responses)
	_ = conn.Send(ctx, Event{Kind: EventVoiceResponse, Text: text})
	if text != "" {
		if err := c.ConvStore.AppendAssistantMessage(ctx, sessionID, text); err != nil {
			c.Log.Error().Err(err).Msg("failed to append assistant message")
		}
	}
	if c.TTS != nil && text != "" {
		audio, format, err := c.TTS.Synthesize(ctx, text)
		if err != nil {
			c.Log.Error().Err(err).Msg("speech synthesis failed")
			return
		}
		if len(audio) > 0 {
			_ = conn.Send(ctx, Event{Kind: EventVoiceTTSStream, Audio: audio, Data: map[string]any{"format": format}})
		}
	}
}

func (c *Controller) runOne(ctx context.Context, conn Conn, shopID, sessionID string, index int, intent external.Intent, responses []string) {
	_ = conn.Send(ctx, Event{Kind: EventTaskStarted, Data: map[string]any{"index": index, "intent": intent.Name}})

	items := make([]dispatch.ItemEntity, len(intent.Items))
	for j, it := range intent.Items {
		items[j] = dispatch.ItemEntity{Product: it.Product, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	req := dispatch.Request{SessionID: sessionID, ShopID: shopID, Intent: intent.Name, Entities: intent.Entities, Items: items}
	result := c.Dispatcher.Dispatch(ctx, req)
	responses[index] = c.Templater.Render(ctx, intent.Name, result)

	if result.Success {
		_ = conn.Send(ctx, Event{Kind: EventTaskCompleted, Data: map[string]any{"index": index, "intent": intent.Name, "result": result.Data}})
	} else {
		_ = conn.Send(ctx, Event{Kind: EventTaskFailed, Data: map[string]any{"index": index, "intent": intent.Name, "error": string(result.Error)}})
	}
}

func joinNonEmpty(parts []string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
