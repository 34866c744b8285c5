package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/rocketscienceinc/tacticwar-backend/internal/apperror"
	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

// CodeAllocator hands out six digit join codes. A code only counts as allocated once the
// repository has inserted the session under it, so two callers can never share one.
type CodeAllocator struct {
	repo     sessionRepo
	attempts int
	generate func() string
}

func NewCodeAllocator(repo sessionRepo, opts Options) *CodeAllocator {
	return &CodeAllocator{
		repo:     repo,
		attempts: opts.withDefaults().CodeAttempts,
		generate: randomCode,
	}
}

// Allocate builds a session for a fresh code and reserves it, drawing another code on collision.
func (that *CodeAllocator) Allocate(ctx context.Context, build func(code string) *entity.Session) (*entity.Session, error) {
	for range that.attempts {
		session := build(that.generate())

		err := that.repo.Reserve(ctx, session)
		if errors.Is(err, apperror.ErrCodeTaken) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to reserve code: %w", err)
		}

		return session, nil
	}

	return nil, fmt.Errorf("%w: %d attempts", apperror.ErrCodeSpaceExhausted, that.attempts)
}

func randomCode() string {
	return strconv.Itoa(entity.CodeMin + rand.IntN(entity.CodeMax-entity.CodeMin+1)) //nolint: gosec // it's ok
}
