package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pong-arena/internal/config"
	"pong-arena/internal/logging"
	"pong-arena/internal/match"
	"pong-arena/internal/store"
	"pong-arena/internal/tournament"
	httptransport "pong-arena/internal/transport/http"
	"pong-arena/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	closeLogs, err := logging.Init(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = closeLogs() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

// server bundles the long-lived components wired from configuration.
type server struct {
	store    *store.Store
	notifier *tournament.Notifier
	registry *match.Registry
	router   *chi.Mux
}

func newServer(ctx context.Context, cfg config.AppConfig) (*server, error) {
	var st *store.Store
	var identity ws.IdentityLookup
	var db httptransport.Pinger
	if cfg.Server.PostgresDSN != "" {
		var err error
		st, err = store.New(cfg.Server.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := st.Ping(ctx); err != nil {
			st.Close()
			return nil, err
		}
		if err := st.EnsureSchema(ctx); err != nil {
			st.Close()
			return nil, err
		}
		identity = st
		db = st
	} else {
		log.Warn().Msg("POSTGRES_DSN not set; connection tokens will not be resolved")
	}

	notifier := tournament.NewNotifier(tournament.Config{
		BaseURL:        cfg.Server.TournamentCoordinatorURL,
		RequestTimeout: cfg.Server.TournamentNotifyTimeout(),
		DispatchBuffer: cfg.Server.TournamentNotifyBuffer,
	})
	if !notifier.Enabled() {
		log.Warn().Msg("TOURNAMENT_COORDINATOR_URL not set; tournament notifications disabled")
	}

	if cfg.Server.AdminAPIKey == "" {
		log.Warn().Msg("ADMIN_API_KEY not set; admin and session creation routes are unauthenticated")
	}

	rt := match.NewRuntime(match.RealClock(), match.RuntimeConfig{
		TickInterval: cfg.Server.TickInterval(),
		ForfeitGrace: cfg.Server.ForfeitGrace(),
		IdleTTL:      cfg.Server.SessionIdleTTL(),
	}, notifier)
	reg := match.NewRegistry(cfg.Tuning, rt)
	wsServer := ws.NewServer(reg, identity, ws.Config{
		AllowedOrigins:  cfg.Server.WSAllowedOrigins,
		ReadLimit:       cfg.Server.WSReadLimitBytes,
		MessagesPerSec:  cfg.Server.WSMessagesPerSec,
		IdentityTimeout: cfg.Server.IdentityLookupTimeout(),
	})
	router := httptransport.NewRouter(httptransport.Deps{
		Registry:    reg,
		WS:          wsServer,
		DB:          db,
		AdminAPIKey: cfg.Server.AdminAPIKey,
	})
	return &server{store: st, notifier: notifier, registry: reg, router: router}, nil
}

func run(ctx context.Context, cfg config.AppConfig) error {
	srv, err := newServer(ctx, cfg)
	if err != nil {
		return err
	}
	if srv.store != nil {
		defer srv.store.Close()
	}
	httptransport.LogRoutes(srv.router)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	srv.notifier.Start(gctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		srv.registry.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	err = g.Wait()
	if srv.notifier.Enabled() {
		<-srv.notifier.Done()
	}
	return err
}
