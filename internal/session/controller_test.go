package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"dukaan-agent/internal/conv"
	"dukaan-agent/internal/core"
	"dukaan-agent/internal/dispatch"
	"dukaan-agent/internal/external"
	"dukaan-agent/internal/resolver"
	"dukaan-agent/internal/templater"
)

func setupTestConvStore(t *testing.T) *conv.Store {
	t.Helper()
	url := os.Getenv("CONV_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CONV_TEST_REDIS_URL not set, skipping session controller integration test")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return conv.NewStore(rdb, 4*time.Hour)
}

// fakeConn is an in-memory Conn that replays a fixed sequence of inbound
// frames and records every outbound event, for driving Controller without a
// real WebSocket.
type fakeConn struct {
	in     []Frame
	pos    int
	events []Event
}

func (c *fakeConn) ReadFrame(ctx context.Context) (Frame, error) {
	if c.pos >= len(c.in) {
		return Frame{}, context.Canceled
	}
	f := c.in[c.pos]
	c.pos++
	return f, nil
}

func (c *fakeConn) Send(ctx context.Context, event Event) error {
	c.events = append(c.events, event)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) kinds() []string {
	kinds := make([]string, len(c.events))
	for i, e := range c.events {
		kinds[i] = e.Kind
	}
	return kinds
}

type stubClassifier struct {
	intents []external.Intent
}

func (s stubClassifier) Classify(ctx context.Context, transcript, contextPrompt string) ([]external.Intent, error) {
	return s.intents, nil
}

func TestHandleConnection_TextModeSwitchLanguage(t *testing.T) {
	convStore := setupTestConvStore(t)
	sessionID := "test-session-ctrl-switch"

	d := &dispatch.Dispatcher{
		Store:     &core.Store{},
		ConvStore: convStore,
		Resolver:  resolver.New(&core.Store{}, convStore),
		Log:       zerolog.Nop(),
	}
	ctrl := &Controller{
		Dispatcher: d,
		ConvStore:  convStore,
		Templater:  templater.New(nil),
		Classifier: stubClassifier{intents: []external.Intent{{Name: "SWITCH_LANGUAGE", Entities: map[string]string{"language": "mr"}}}},
		Log:        zerolog.Nop(),
	}

	conn := &fakeConn{in: []Frame{
		{Kind: FrameVoiceStart},
		{Kind: FrameVoiceFinal, Text: "marathi mein baat karo"},
	}}

	ctrl.HandleConnection(context.Background(), "shop-1", sessionID, conn)

	kinds := conn.kinds()
	require.Contains(t, kinds, EventVoiceStart)
	require.Contains(t, kinds, EventVoiceTranscript)
	require.Contains(t, kinds, EventVoiceIntent)
	require.Contains(t, kinds, EventTaskCompleted)
	require.Contains(t, kinds, EventVoiceResponse)
}

func TestHandleConnection_RecordingToggleBypassesClassifier(t *testing.T) {
	convStore := setupTestConvStore(t)
	sessionID := "test-session-ctrl-recording"

	d := &dispatch.Dispatcher{
		Store:     &core.Store{},
		ConvStore: convStore,
		Resolver:  resolver.New(&core.Store{}, convStore),
		Log:       zerolog.Nop(),
	}
	ctrl := &Controller{
		Dispatcher: d,
		ConvStore:  convStore,
		Templater:  templater.New(nil),
		Log:        zerolog.Nop(),
	}

	conn := &fakeConn{in: []Frame{{Kind: FrameRecordingStart}}}
	ctrl.HandleConnection(context.Background(), "shop-1", sessionID, conn)

	require.Contains(t, conn.kinds(), EventTaskCompleted)
}
