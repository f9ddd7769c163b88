// Package app wires a Config into a running portal: the local store, the
// optional remote backend, logging, metrics and the sync coordinator.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradeportal/config"
	"github.com/rustyeddy/tradeportal/internal/metrics"
	"github.com/rustyeddy/tradeportal/journal"
	"github.com/rustyeddy/tradeportal/remote"
	"github.com/rustyeddy/tradeportal/remote/rest"
	"github.com/rustyeddy/tradeportal/remote/sqlstore"
	"github.com/rustyeddy/tradeportal/syncer"
)

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Portal   *syncer.Coordinator

	closers []io.Closer
}

// Open builds the store, backend and coordinator described by cfg. With
// offline set the remote section is ignored. The coordinator is not
// started.
func Open(cfg *config.Config, log *zap.Logger, offline bool) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		Config:   cfg,
		Logger:   log,
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, err := OpenStore(cfg.Local)
	if err != nil {
		return nil, err
	}

	var (
		backend remote.Backend
		user    remote.User
	)
	if !offline && cfg.RemoteEnabled() {
		backend, user, err = a.openBackend(cfg)
		if err != nil {
			_ = store.Close()
			_ = a.closeAll()
			return nil, err
		}
		if user.ID == "" {
			log.Warn("remote backend configured without a user id, running local-only",
				zap.String("remote", cfg.Remote.Type))
		}
	}

	durations, err := cfg.Sync.ParseDurations()
	if err != nil {
		_ = store.Close()
		_ = a.closeAll()
		return nil, err
	}

	portal, err := syncer.New(syncer.Options{
		Store:          store,
		Backend:        backend,
		User:           user,
		Logger:         log,
		Metrics:        metrics.New(a.Registry),
		InitialTimeout: durations.InitialTimeout,
		RetryDelay:     durations.RetryDelay,
		RetryTimeout:   durations.RetryTimeout,
		WriteTimeout:   durations.WriteTimeout,
		ProbeInterval:  durations.ProbeInterval,
		ProbeTimeout:   durations.ProbeTimeout,
	})
	if err != nil {
		_ = store.Close()
		_ = a.closeAll()
		return nil, err
	}
	a.Portal = portal
	return a, nil
}

// Start loads local and remote state.
func (a *App) Start(ctx context.Context) error {
	return a.Portal.Start(ctx)
}

// Close stops the coordinator, which closes the local store, then the
// backend.
func (a *App) Close() error {
	var first error
	if a.Portal != nil {
		first = a.Portal.Close()
	}
	if err := a.closeAll(); err != nil && first == nil {
		first = err
	}
	return first
}

func (a *App) closeAll() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// OpenStore opens the local key/value store selected by lc.
func OpenStore(lc config.LocalConfig) (journal.Store, error) {
	switch lc.Type {
	case "sqlite":
		s, err := journal.NewSQLite(lc.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case "file":
		s, err := journal.NewFileStore(lc.Dir)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return s, nil
	case "redis":
		return journal.NewRedisStore(&redis.Options{
			Addr:     lc.RedisAddr,
			Password: lc.RedisPassword,
			DB:       lc.RedisDB,
		}, lc.RedisPrefix), nil
	case "memory":
		return journal.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown local store type %q", lc.Type)
}

func (a *App) openBackend(cfg *config.Config) (remote.Backend, remote.User, error) {
	user := remote.User{ID: cfg.User.ID, Email: cfg.User.Email}

	switch cfg.Remote.Type {
	case "rest":
		if user.ID == "" && cfg.Remote.AccessToken != "" {
			uid, err := rest.UserIDFromToken(cfg.Remote.AccessToken)
			if err != nil {
				return nil, user, fmt.Errorf("access token: %w", err)
			}
			user.ID = uid
		}
		return rest.NewClient(cfg.Remote.URL, cfg.Remote.APIKey, cfg.Remote.AccessToken), user, nil

	case "postgres":
		st, err := sqlstore.OpenPostgres(cfg.Remote.DSN, sqlstore.Options{MaxOpenConns: cfg.Remote.MaxOpenConns})
		if err != nil {
			return nil, user, err
		}
		a.closers = append(a.closers, st)
		return st, user, nil
	}
	return nil, user, fmt.Errorf("unknown remote type %q", cfg.Remote.Type)
}

// UserLabel is how the CLI names the signed-in user.
func UserLabel(st syncer.Status) string {
	if u := strings.TrimSpace(st.User); u != "" {
		return u
	}
	return "local"
}
