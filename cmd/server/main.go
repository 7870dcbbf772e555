package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	webAdapter "dukaan-agent/internal/adapters/web"
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

	// STT, TTS, WhatsApp, email, object storage, and job scheduling are every
	// one narrow interfaces in internal/external; no live credentials are
	// wired here yet, so every collaborator runs its logging/in-memory stub.
	// Swapping in a real provider means implementing the interface and
	// constructing it here.
	emailSvc := external.NewLoggingEmail(logger)
	wa := external.NewLoggingWhatsApp(logger)
	jobs := external.NewInMemoryJobQueue(logger)
	objects := external.NewInMemoryObjectStore(logger)
	stt := external.NewLoggingSTT(logger, cfg.STTProvider)
	tts := external.NewLoggingTTS(logger, cfg.TTSProvider)

	d := &dispatch.Dispatcher{
		Store:      store,
		ConvStore:  convStore,
		Resolver:   res,
		Email:      emailSvc,
		WhatsApp:   wa,
		Jobs:       jobs,
		Objects:    objects,
		AdminEmail: cfg.AdminEmail,
		Log:        logger,
	}

	var responder external.Responder = external.NewLoggingResponder(logger)
	var classifier external.Classifier
	if cfg.LLMAPIKey != "" {
		responder = ai.NewResponder(cfg.LLMAPIKey, "")
		classifier = ai.NewClassifier(cfg.LLMAPIKey, "")
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, voice intents will not be classified")
	}
	tmpl := templater.New(responder)

	ctrl := &session.Controller{
		Dispatcher: d,
		ConvStore:  convStore,
		Templater:  tmpl,
		STT:        stt,
		TTS:        tts,
		Classifier: classifier,
		Log:        logger,
	}

	handler := webAdapter.NewHandler(store, ctrl, cfg.ShopID, os.Getenv("ALLOWED_ORIGINS"))

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("server starting")
	if err := http.ListenAndServe(cfg.HTTPAddr, handler); err != nil {
		logger.Fatal().Err(err).Msg("server")
	}
}
