package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/draftforge/livedraft-backend/internal/config"
	"github.com/draftforge/livedraft-backend/internal/httpapi"
	"github.com/draftforge/livedraft-backend/internal/lobby"
	"github.com/draftforge/livedraft-backend/internal/logging"
	"github.com/draftforge/livedraft-backend/internal/notify"
	"github.com/draftforge/livedraft-backend/internal/store"
	"github.com/draftforge/livedraft-backend/internal/store/memory"
	"github.com/draftforge/livedraft-backend/internal/store/postgres"
	"github.com/draftforge/livedraft-backend/internal/ws"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	notifier, err := openNotifier(ctx, g, cfg, logger)
	if err != nil {
		return err
	}

	ctrl := lobby.NewController(st, notifier, clockwork.NewRealClock(), logger)
	api := httpapi.NewAPI(ctrl, logger)
	wsHandler := ws.Handler(logger, ctrl, notifier, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.SetupRoutes(api, wsHandler, cfg.AllowedOrigins),
	}

	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreDriver),
			zap.String("notify", cfg.NotifyDriver))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

func openStore(cfg *config.Config) (*store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return memory.New(), nil
	default:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.New(db), nil
	}
}

// openNotifier picks the change-signal transport. The postgres and nats
// drivers carry signals across nodes; the memory hub is single-node only.
func openNotifier(ctx context.Context, g *errgroup.Group, cfg *config.Config, logger *zap.Logger) (notify.Notifier, error) {
	switch cfg.NotifyDriver {
	case config.NotifyPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open listen/notify pool: %w", err)
		}
		n := notify.NewPostgres(pool, logger)
		g.Go(func() error {
			err := n.Run(ctx)
			pool.Close()
			return err
		})
		return n, nil
	case config.NotifyNATS:
		nc, err := nats.Connect(cfg.NATSURL,
			nats.Name("livedraft"),
			nats.MaxReconnects(-1))
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		n, err := notify.NewNATS(nc, logger)
		if err != nil {
			return nil, fmt.Errorf("subscribe nats: %w", err)
		}
		g.Go(func() error {
			<-ctx.Done()
			n.Close()
			nc.Close()
			return nil
		})
		return n, nil
	default:
		h := notify.NewHub()
		g.Go(func() error {
			<-ctx.Done()
			h.Close()
			return nil
		})
		return h, nil
	}
}
