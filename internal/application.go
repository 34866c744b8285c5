package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tacticwar-backend/internal/config"
	"github.com/rocketscienceinc/tacticwar-backend/internal/repository"
	"github.com/rocketscienceinc/tacticwar-backend/internal/repository/storage"
	"github.com/rocketscienceinc/tacticwar-backend/internal/service"
	"github.com/rocketscienceinc/tacticwar-backend/internal/usecase"
	"github.com/rocketscienceinc/tacticwar-backend/transport/rest"
)

var ErrAddrNotFound = errors.New("redis host is empty")

type sessionStore struct {
	repo    repository.SessionRepository
	pinger  interface{ Ping(ctx context.Context) error }
	closeFn func() error
}

// RunApp - runs the application.
func RunApp(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	store, err := openStore(ctx, log, conf)
	if err != nil {
		return err
	}
	defer store.close(log)

	opts := sessionOptions(conf)
	codes := service.NewCodeAllocator(store.repo, opts)
	sessionUseCase := usecase.NewSessionUseCase(logger,
		service.NewLifecycleService(store.repo, codes, opts),
		service.NewTurnArbiter(store.repo, opts),
		service.NewBoardRelay(store.repo, opts),
	)

	if conf.Retention.SweepInterval > 0 {
		sweeper := service.NewSweeper(logger, store.repo, retentionPolicy(conf))

		log.Info("Starting session sweeper", "interval", conf.Retention.SweepInterval)
		go sweeper.Run(ctx, conf.Retention.SweepInterval)
	}

	router := rest.NewRouter(logger, sessionUseCase, store.pinger, conf.HTTP.MaxBodyBytes)

	log.Info("Starting HTTP server", "port", conf.HTTPPort, "storage", conf.Storage.Driver)

	if err = rest.Start(ctx, conf.HTTPPort, router); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

// RunSweep - runs a single retention pass and reports how many sessions were removed.
func RunSweep(ctx context.Context, logger *slog.Logger, conf *config.Config) (int, error) {
	log := logger.With("component", "app")

	store, err := openStore(ctx, log, conf)
	if err != nil {
		return 0, err
	}
	defer store.close(log)

	sweeper := service.NewSweeper(logger, store.repo, retentionPolicy(conf))

	removed, err := sweeper.Sweep(ctx, time.Now())
	if err != nil {
		return removed, fmt.Errorf("sweep failed: %w", err)
	}

	return removed, nil
}

func openStore(ctx context.Context, log *slog.Logger, conf *config.Config) (*sessionStore, error) {
	switch conf.Storage.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(conf.SQLiteStoragePath); dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("could not create sqlite directory: %w", err)
			}
		}

		sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
		if err != nil {
			return nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		log.Info("Using sqlite storage", "path", conf.SQLiteStoragePath)

		return &sessionStore{
			repo:    repository.NewSQLiteSessionRepository(sqliteStorage.Connection),
			pinger:  sqliteStorage,
			closeFn: sqliteStorage.Close,
		}, nil
	default:
		if conf.Redis.Host == "" {
			return nil, ErrAddrNotFound
		}

		redisAddrString := conf.Redis.GetRedisAddr()

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		log.Info("Using redis storage", "addr", redisAddrString, "db", conf.Redis.DB)

		return &sessionStore{
			repo:    repository.NewSessionRepository(redisStorage.Connection),
			pinger:  redisStorage,
			closeFn: redisStorage.Close,
		}, nil
	}
}

func (that *sessionStore) close(log *slog.Logger) {
	if err := that.closeFn(); err != nil {
		log.Error("could not close storage", "error", err)
	}
}

func sessionOptions(conf *config.Config) service.Options {
	return service.Options{
		MaxDocumentBytes: conf.Session.MaxDocumentBytes,
		CodeAttempts:     conf.Session.CodeAttempts,
		CASRetries:       conf.Session.CASRetries,
	}
}

func retentionPolicy(conf *config.Config) service.RetentionPolicy {
	return service.RetentionPolicy{
		TerminalTTL: conf.Retention.TerminalTTL,
		WaitingTTL:  conf.Retention.WaitingTTL,
		IdleTTL:     conf.Retention.IdleTTL,
	}
}
