package application

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tacticwar-backend/internal/config"
	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty redis host fails with ErrAddrNotFound", func(t *testing.T) {
		// Given: redis selected with the host blanked out
		conf := &config.Config{
			Storage: config.Storage{Driver: config.DriverRedis},
			Redis:   config.Redis{Host: "", Port: "6379"},
		}

		// When
		_, err := openStore(ctx, discardLogger, conf)

		// Then: no connection is attempted
		require.ErrorIs(t, err, ErrAddrNotFound)
	})

	t.Run("SQLite store is created under a fresh directory", func(t *testing.T) {
		conf := &config.Config{
			Storage:           config.Storage{Driver: config.DriverSQLite},
			SQLiteStoragePath: filepath.Join(t.TempDir(), "nested", "sessions.db"),
		}

		store, err := openStore(ctx, discardLogger, conf)
		require.NoError(t, err)
		t.Cleanup(func() { store.close(discardLogger) })

		require.NoError(t, store.pinger.Ping(ctx))

		session := entity.NewSession("654321", "alice", nil, 3, time.Now())
		require.NoError(t, store.repo.Reserve(ctx, session))

		stored, err := store.repo.GetByCode(ctx, "654321")
		require.NoError(t, err)
		assert.Equal(t, "alice", stored.Host)
	})
}
