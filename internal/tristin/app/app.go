// Package app assembles the gateway: configuration in, a running HTTP
// server plus a background sweep schedule out.
package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/justcollins/tristin/internal/tristin/cache"
	"github.com/justcollins/tristin/internal/tristin/chat"
	"github.com/justcollins/tristin/internal/tristin/config"
	"github.com/justcollins/tristin/internal/tristin/dictionary"
	"github.com/justcollins/tristin/internal/tristin/llm"
	"github.com/justcollins/tristin/internal/tristin/memory"
	"github.com/justcollins/tristin/internal/tristin/persona"
	"github.com/justcollins/tristin/internal/tristin/ratelimit"
	"github.com/justcollins/tristin/internal/tristin/session"
)

// App is the assembled gateway.
type App struct {
	cfg    config.Config
	orch   *chat.Orchestrator
	server *Server
	http   *http.Server
	cron   *cron.Cron
	log    *slog.Logger
}

// New builds the full pipeline from configuration. Nothing starts
// listening until Run.
func New(cfg config.Config) (*App, error) {
	log := slog.Default()

	pack, err := loadPersona(cfg.PersonaPath)
	if err != nil {
		return nil, err
	}

	provider := llm.New(llm.Config{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Model:   cfg.GroqModel,
		Timeout: cfg.GroqTimeout,
	})

	orch := chat.New(chat.Deps{
		Limiter:       ratelimit.New(cfg.RateLimit, cfg.RateWindow),
		ResponseCache: cache.New(cfg.ResponseCacheSize, cfg.ResponseCacheTTL),
		DefCache:      cache.New(cfg.DefCacheSize, cfg.DefCacheTTL),
		Memory: memory.NewStore(memory.Config{
			Capacity:    cfg.MemoryCapacity,
			MaxFieldLen: cfg.MemoryFieldLen,
			IdleHorizon: cfg.MemoryIdleHorizon,
		}),
		Pack:       pack,
		Dictionary: dictionary.New(dictionary.Config{Timeout: cfg.DictTimeout}),
		Provider:   provider,
		Logger:     log,
	})

	resolver, err := buildResolver(cfg, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		orch:   orch,
		server: NewServer(orch, resolver, log),
		cron:   cron.New(),
		log:    log,
	}
	if _, err := a.cron.AddFunc(cfg.SweepSchedule, func() {
		orch.Sweep(time.Now())
	}); err != nil {
		return nil, fmt.Errorf("app: sweep schedule %q: %w", cfg.SweepSchedule, err)
	}
	return a, nil
}

func loadPersona(path string) (*persona.Pack, error) {
	if path == "" {
		return persona.Default()
	}
	return persona.Load(path)
}

func buildResolver(cfg config.Config, log *slog.Logger) (session.UserKeyResolver, error) {
	switch cfg.IdentityStrategy {
	case config.IdentityAddr:
		return session.NewAddrResolver(), nil
	case config.IdentityCookie:
		secret := []byte(cfg.SessionSecret)
		if len(secret) == 0 {
			// Ephemeral secret: existing sessions become fresh
			// identities after a restart.
			secret = make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return nil, fmt.Errorf("app: generate session secret: %w", err)
			}
			log.Warn("no session secret configured, sessions will not survive restarts")
		}
		return session.NewCookieResolver(secret, log), nil
	default:
		return nil, fmt.Errorf("app: unknown identity strategy %q", cfg.IdentityStrategy)
	}
}

// Run starts the HTTP listener and the sweep schedule, then blocks until
// an interrupt or termination signal arrives.
func (a *App) Run() error {
	ln, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", a.cfg.ListenAddr, err)
	}

	a.http = &http.Server{
		Handler:      a.server,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.cron.Start()

	go func() {
		a.log.Info("gateway listening", "addr", ln.Addr().String())
		if err := a.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			a.log.Error("http server stopped", "err", err)
		}
	}()

	a.log.Info("gateway is running; press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutting down")
	return nil
}

// Stop drains in-flight requests and halts the sweep schedule.
func (a *App) Stop() {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	if a.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.http.Shutdown(ctx); err != nil {
			a.log.Warn("http server shutdown error", "err", err)
		}
	}
}
