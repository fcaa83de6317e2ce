package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/okravchenko/tidechat-server/internal/auth"
	"github.com/okravchenko/tidechat-server/internal/config"
	"github.com/okravchenko/tidechat-server/internal/core"
	"github.com/okravchenko/tidechat-server/internal/notify"
	"github.com/okravchenko/tidechat-server/internal/store"
	redisstore "github.com/okravchenko/tidechat-server/internal/store/redis"
	"github.com/okravchenko/tidechat-server/internal/store/sqlite"
	transporthttp "github.com/okravchenko/tidechat-server/internal/transport/http"
)

// storage composes the hub's storage collaborator from possibly different
// backends (presence may live in redis while everything else is sqlite).
type storage struct {
	store.ConversationStore
	store.MessageStore
	store.PresenceStore
}

type closer interface {
	Close() error
}

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	dispatcher      *notify.Dispatcher
	closers         []closer
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	a.closers = append(a.closers, st)
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	var presence store.PresenceStore = st
	if cfg.PresenceBackend == "redis" {
		rp, err := redisstore.New(context.Background(), cfg.RedisAddr)
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("init redis presence: %w", err)
		}
		a.closers = append(a.closers, rp)
		presence = rp
		logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("redis presence backend initialized")
	}

	var notifier notify.Notifier
	if cfg.NATSURL != "" {
		nn, err := notify.NewNATSNotifier(cfg.NATSURL)
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("init nats notifier: %w", err)
		}
		a.closers = append(a.closers, nn)
		notifier = nn
		logger.Info().Str("nats_url", cfg.NATSURL).Msg("nats notifier initialized")
	} else {
		notifier = notify.NewLogNotifier(logger)
	}
	a.dispatcher = notify.NewDispatcher(notifier, cfg.NotifyQueue, logger)

	jwtConfig := &auth.JWTConfig{
		Secret:       []byte(cfg.JWTSecret),
		Issuer:       cfg.JWTIssuer,
		Audience:     cfg.JWTAudience,
		TTL:          24 * time.Hour,
		AllowExpired: cfg.AllowExpiredTokens,
	}
	gate := auth.NewGate(st, jwtConfig, cfg.IsProduction(), cfg.AuthTimeout, logger)

	hub := core.NewHub(storage{st, st, presence}, a.dispatcher, logger)
	a.server = transporthttp.NewServer(hub, gate, cfg, logger)

	return a, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.dispatcher.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.dispatcher.Wait()
		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes stores and other resources in reverse order.
func (a *App) cleanup() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close resource")
		}
	}
	a.closers = nil
}
