package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sevenofnine/scheduler/internal/api"
	"github.com/sevenofnine/scheduler/internal/config"
	"github.com/sevenofnine/scheduler/internal/event"
	"github.com/sevenofnine/scheduler/internal/metrics"
	"github.com/sevenofnine/scheduler/internal/store"
	"github.com/sevenofnine/scheduler/internal/tray"
)

type Application struct {
	cfg    config.Config
	store  store.Store
	tray   tray.App
	logger *slog.Logger
	now    func() time.Time
}

// New wires an application around st. A nil tray is built from cfg when the
// tray is enabled.
func New(cfg config.Config, st store.Store, tr tray.App, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}
	if st == nil {
		st = store.NewMemory()
	}
	return &Application{cfg: cfg, store: st, tray: tr, logger: logger, now: time.Now}
}

// BuildStore opens the backend named by cfg.Store. The returned close
// function releases its connections.
func BuildStore(ctx context.Context, cfg config.Config) (store.Store, func() error, error) {
	switch cfg.Store {
	case "", config.StoreMemory:
		return store.NewMemory(), func() error { return nil }, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		return store.NewRedis(client, cfg.Redis.Prefix), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store: %q", cfg.Store)
	}
}

func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := metrics.New()
	svc := event.New(event.Options{
		Store:       a.store,
		Logger:      a.logger,
		Metrics:     m,
		CalendarID:  a.cfg.CalendarID,
		StrictDates: a.cfg.StrictDates,
	})
	if a.cfg.Seed {
		if err := svc.Seed(ctx, a.now()); err != nil {
			return err
		}
	}
	server := api.New(api.Options{
		Events:         svc,
		Metrics:        m,
		Logger:         a.logger,
		RequestTimeout: a.cfg.RequestTimeout,
	})

	errCh := make(chan error, 3)
	wg := sync.WaitGroup{}

	if a.cfg.BindAddress != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ServeTCP(ctx, a.cfg.BindAddress); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("tcp server: %w", err)
			}
		}()
	}
	if a.cfg.UnixSocketPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ServeUnix(ctx, a.cfg.UnixSocketPath); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("unix server: %w", err)
			}
		}()
	}

	if a.cfg.EnableTray {
		tr := a.tray
		if tr == nil {
			tr = tray.New(tray.Options{Title: "Scheduler", Address: a.cfg.BindAddress, Quit: cancel})
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tr.Run(ctx); err != nil {
				errCh <- fmt.Errorf("tray: %w", err)
			}
		}()
	}

	a.logger.Info("scheduler started", "store", a.cfg.Store, "bind", a.cfg.BindAddress, "unix_socket", a.cfg.UnixSocketPath)
	select {
	case err := <-errCh:
		cancel()
		wg.Wait()
		return err
	case <-ctx.Done():
		wg.Wait()
		return nil
	}
}
