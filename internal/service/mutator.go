package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tacticwar-backend/internal/apperror"
	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

// errUnchanged - returned by a change func when there is nothing to write.
var errUnchanged = errors.New("session unchanged")

// mutator applies read-modify-write changes to a session against the version it read.
type mutator struct {
	repo    sessionRepo
	retries int
	now     clock
}

func newMutator(repo sessionRepo, opts Options) *mutator {
	return &mutator{
		repo:    repo,
		retries: opts.withDefaults().CASRetries,
		now:     time.Now,
	}
}

// apply loads the session, runs change on it and writes it back only if nobody else wrote in
// between. With expectedVersion > 0 the caller pins the version it observed and a mismatch is
// reported as ErrVersionConflict; with 0 a lost race is retried on a fresh read.
func (that *mutator) apply(ctx context.Context, code string, expectedVersion int64, change func(session *entity.Session) error) (*entity.Session, error) {
	for attempt := 0; ; attempt++ {
		session, err := that.repo.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}

		if expectedVersion > 0 && session.Version != expectedVersion {
			return nil, fmt.Errorf("%w: session is at version %d, request was based on %d",
				apperror.ErrVersionConflict, session.Version, expectedVersion)
		}

		observed := session.Version

		err = change(session)
		if errors.Is(err, errUnchanged) {
			return session, nil
		}

		if err != nil {
			return nil, err
		}

		session.Touch(that.now())

		err = that.repo.Update(ctx, session, observed)
		if err == nil {
			return session, nil
		}

		if errors.Is(err, apperror.ErrVersionConflict) && expectedVersion == 0 && attempt < that.retries {
			continue
		}

		return nil, fmt.Errorf("failed to update session: %w", err)
	}
}
