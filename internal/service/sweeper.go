package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tacticwar-backend/internal/apperror"
	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

// RetentionPolicy - how long a session may sit without updates before it is reaped.
// A TTL that is not positive keeps that class of sessions forever.
type RetentionPolicy struct {
	TerminalTTL time.Duration
	WaitingTTL  time.Duration
	IdleTTL     time.Duration
}

func (that RetentionPolicy) expired(session *entity.Session, now time.Time) bool {
	var ttl time.Duration

	switch {
	case session.IsTerminal():
		ttl = that.TerminalTTL
	case session.IsWaiting():
		ttl = that.WaitingTTL
	case session.IsPlaying():
		ttl = that.IdleTTL
	}

	return ttl > 0 && now.Sub(session.LastUpdate) > ttl
}

// Sweeper deletes stale sessions. It sits outside the session lifecycle: the broker itself never
// deletes anything.
type Sweeper struct {
	logger *slog.Logger
	repo   sessionRepo
	policy RetentionPolicy
}

func NewSweeper(logger *slog.Logger, repo sessionRepo, policy RetentionPolicy) *Sweeper {
	return &Sweeper{
		logger: logger.With("component", "sweeper"),
		repo:   repo,
		policy: policy,
	}
}

// Sweep removes every session the policy considers expired at now. A session touched after it
// was listed survives.
func (that *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	log := that.logger.With("method", "Sweep")

	sessions, err := that.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	removed := 0

	for _, session := range sessions {
		if !that.policy.expired(session, now) {
			continue
		}

		err = that.repo.DeleteByCode(ctx, session.Code, session.Version)
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrVersionConflict) {
			log.Debug("session changed during sweep", "code", session.Code, "error", err)
			continue
		}

		if err != nil {
			return removed, fmt.Errorf("failed to delete session %s: %w", session.Code, err)
		}

		removed++
	}

	if removed > 0 {
		log.Info("reaped sessions", "count", removed)
	}

	return removed, nil
}

// Run sweeps every interval until ctx is canceled.
func (that *Sweeper) Run(ctx context.Context, interval time.Duration) {
	log := that.logger.With("method", "Run")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("sweeper stopped")
			return
		case now := <-ticker.C:
			if _, err := that.Sweep(ctx, now); err != nil {
				log.Error("sweep failed", "error", err)
			}
		}
	}
}
