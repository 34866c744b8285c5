package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rocketscienceinc/tacticwar-backend/internal/apperror"
	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

type LifecycleService struct {
	codes   *CodeAllocator
	mutator *mutator

	maxDocumentBytes int

	now  clock
	pick func(n int) int
}

func NewLifecycleService(repo sessionRepo, codes *CodeAllocator, opts Options) *LifecycleService {
	opts = opts.withDefaults()

	return &LifecycleService{
		codes:            codes,
		mutator:          newMutator(repo, opts),
		maxDocumentBytes: opts.MaxDocumentBytes,
		now:              time.Now,
		pick:             rand.IntN, //nolint: gosec // it's ok
	}
}

// CreateSession opens a waiting session owned by host under a freshly reserved code.
func (that *LifecycleService) CreateSession(ctx context.Context, host string, settings entity.Document) (*entity.Session, error) {
	if host == "" {
		return nil, apperror.ErrEmptyIdentity
	}

	if err := settings.ValidateObject(that.maxDocumentBytes); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	seed := that.pick(entity.SeedLimit)
	now := that.now()

	session, err := that.codes.Allocate(ctx, func(code string) *entity.Session {
		return entity.NewSession(code, host, settings, seed, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to allocate session: %w", err)
	}

	return session, nil
}

func (that *LifecycleService) JoinSession(ctx context.Context, code, guest string) (*entity.Session, error) {
	session, err := that.mutator.apply(ctx, code, 0, func(session *entity.Session) error {
		return session.Join(guest)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join session: %w", err)
	}

	return session, nil
}

// StartSession puts a full session into play and returns who moves first.
func (that *LifecycleService) StartSession(ctx context.Context, code string) (string, error) {
	var firstTurn string

	_, err := that.mutator.apply(ctx, code, 0, func(session *entity.Session) error {
		turn, changed, err := session.Start(that.pick)
		if err != nil {
			return err
		}

		firstTurn = turn
		if !changed {
			return errUnchanged
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}

	return firstTurn, nil
}

func (that *LifecycleService) FinishSession(ctx context.Context, code string) error {
	return that.terminate(ctx, code, entity.StatusFinished)
}

func (that *LifecycleService) AbortSession(ctx context.Context, code string) error {
	return that.terminate(ctx, code, entity.StatusAborted)
}

// terminate is idempotent: both players may end the same session, and it may already be gone.
func (that *LifecycleService) terminate(ctx context.Context, code, status string) error {
	_, err := that.mutator.apply(ctx, code, 0, func(session *entity.Session) error {
		changed, err := session.Terminate(status)
		if err != nil {
			return err
		}

		if !changed {
			return errUnchanged
		}

		return nil
	})
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to set session %s: %w", status, err)
	}

	return nil
}
