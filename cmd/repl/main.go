// repl is a terminal front-end for the voice pipeline: it drives the same
// session.Controller the WebSocket handler drives, but reads typed Hinglish
// lines from stdin instead of decoding an audio stream, using voice:final's
// text-mode shortcut to skip STT entirely. Useful for exercising the
// classifier/dispatcher/templater chain without a microphone.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dukaan-agent/internal/ai"
	"dukaan-agent/internal/config"
	"dukaan-agent/internal/conv"
	"dukaan-agent/internal/core"
	"dukaan-agent/internal/db"
	"dukaan-agent/internal/dispatch"
	"dukaan-agent/internal/external"
	"dukaan-agent/internal/resolver"
	"dukaan-agent/internal/session"
	"dukaan-agent/internal/templater"
)

func main() {
	_ = godotenv.Load()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}

	store := core.NewStore(pool)
	convStore := conv.NewStore(rdb, cfg.ConvTTL)
	res := resolver.New(store, convStore)

	d := &dispatch.Dispatcher{
		Store:      store,
		ConvStore:  convStore,
		Resolver:   res,
		Email:      external.NewLoggingEmail(logger),
		WhatsApp:   external.NewLoggingWhatsApp(logger),
		Jobs:       external.NewInMemoryJobQueue(logger),
		Objects:    external.NewInMemoryObjectStore(logger),
		AdminEmail: cfg.AdminEmail,
		Log:        logger,
	}

	var responder external.Responder = external.NewLoggingResponder(logger)
	var classifier external.Classifier
	if cfg.LLMAPIKey != "" {
		responder = ai.NewResponder(cfg.LLMAPIKey, "")
		classifier = ai.NewClassifier(cfg.LLMAPIKey, "")
	} else {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY not set; every line will classify as UNKNOWN")
	}

	ctrl := &session.Controller{
		Dispatcher: d,
		ConvStore:  convStore,
		Templater:  templater.New(responder),
		Classifier: classifier,
		Log:        logger,
	}

	fmt.Printf("dukaan-agent repl — shop %s. Type a Hinglish command, or /exit to quit.\n", cfg.ShopID)
	ctrl.HandleConnection(ctx, cfg.ShopID, "repl-session", &stdioConn{reader: bufio.NewReader(os.Stdin)})
}

// stdioConn implements session.Conn over the terminal: each line read from
// stdin becomes one voice:final frame, and outbound events are printed as
// they arrive instead of being framed back over a socket.
type stdioConn struct {
	reader *bufio.Reader
}

func (c *stdioConn) ReadFrame(ctx context.Context) (session.Frame, error) {
	fmt.Print("\n> ")
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return session.Frame{}, err
	}
	line = strings.TrimSpace(line)
	if line == "/exit" || line == "/quit" {
		return session.Frame{}, fmt.Errorf("user exited")
	}
	return session.Frame{Kind: session.FrameVoiceFinal, Text: line}, nil
}

func (c *stdioConn) Send(ctx context.Context, event session.Event) error {
	switch event.Kind {
	case session.EventVoiceTranscript:
		// text-mode input already echoes what was typed; nothing to add.
	case session.EventVoiceIntent:
		fmt.Printf("[intent] %v\n", event.Data["intents"])
	case session.EventTaskFailed:
		fmt.Printf("[error]  %v: %v\n", event.Data["intent"], event.Data["error"])
	case session.EventVoiceResponse:
		fmt.Printf("[agent]  %s\n", event.Text)
	case session.EventError:
		fmt.Printf("[error]  %v\n", event.Data["message"])
	}
	return nil
}

func (c *stdioConn) Close() error { return nil }
