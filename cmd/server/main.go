package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/Ayush94-1708/music-glass/internal/adapters/http"
	"github.com/Ayush94-1708/music-glass/internal/app"
	"github.com/Ayush94-1708/music-glass/internal/app/orch"
	"github.com/Ayush94-1708/music-glass/internal/auth"
	"github.com/Ayush94-1708/music-glass/internal/config"
	"github.com/Ayush94-1708/music-glass/internal/storage/chat"
	"github.com/Ayush94-1708/music-glass/internal/storage/codes"
)

type codeStore interface {
	app.CodeClaimer
	Close() error
}

func openCodes(ctx context.Context, cfg *config.Config) (codeStore, error) {
	switch cfg.Codes.Driver {
	case "", "memory":
		return codes.NewMemoryStore(), nil
	case "redis":
		store, err := codes.NewRedisStore(ctx, codes.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Owner:    uuid.NewString(),
			TTL:      cfg.Codes.TTL,
		})
		if err != nil {
			return nil, err
		}
		// live rooms can outlast the claim ttl
		go store.KeepAlive(ctx)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown codes driver %q", cfg.Codes.Driver)
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	loader := config.NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.ApplyLogLevel(cfg.LogLevel)
	loader.Watch(func(next *config.Config) {
		config.ApplyLogLevel(next.LogLevel)
	})

	chatStore, err := chat.Open(ctx, cfg.Chat.Driver, cfg.Chat.DSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Chat.Driver).Msg("failed to open chat store")
	}
	defer chatStore.Close()

	claims, err := openCodes(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Codes.Driver).Msg("failed to open room code store")
	}
	defer claims.Close()

	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(claims, app.RandomCodes(cfg.RoomCodeLength)),
		Policy:   app.PolicyByName(cfg.Backpressure),
		Chat:     chatStore,
		Options: orch.Options{
			ChatHistoryLimit: cfg.ChatHistoryLimit,
			ResetLikesOnPlay: cfg.LikesResetOnPlay,
		},
	}

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if cfg.Auth.Required && !verifier.Enabled() {
		log.Fatal().Msg("auth.required is set but auth.jwt_secret is empty")
	}

	r := router.SetupRouter(ctx, cfg, o, verifier)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("music-glass server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
