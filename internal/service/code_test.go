package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tacticwar-backend/internal/apperror"
	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

var errRedisDown = errors.New("redis down")

func buildFor(host string) func(code string) *entity.Session {
	return func(code string) *entity.Session {
		return entity.NewSession(code, host, nil, 1, fixedNow)
	}
}

func TestRandomCode(t *testing.T) {
	sixDigits := regexp.MustCompile(`^[1-9][0-9]{5}$`)

	for range 1000 {
		assert.Regexp(t, sixDigits, randomCode())
	}
}

func TestCodeAllocator_Allocate(t *testing.T) {
	t.Run("Draws a new code after a collision", func(t *testing.T) {
		ctx, b := newBroker(t)

		// Given: code 111111 is already in use
		_, err := NewCodeAllocator(b.repo, Options{}).Allocate(ctx, func(code string) *entity.Session {
			return entity.NewSession("111111", "alice", nil, 1, fixedNow)
		})
		require.NoError(t, err)

		codes := []string{"111111", "111111", "222222"}
		allocator := NewCodeAllocator(b.repo, Options{})
		allocator.generate = func() string {
			code := codes[0]
			codes = codes[1:]
			return code
		}

		// When: bob allocates and the generator repeats the taken code twice
		session, err := allocator.Allocate(ctx, buildFor("bob"))

		// Then: the third draw is reserved
		require.NoError(t, err)
		assert.Equal(t, "222222", session.Code)
		assert.Equal(t, "bob", b.status(ctx, t, "222222").Host)
		assert.Equal(t, "alice", b.status(ctx, t, "111111").Host)
	})

	t.Run("Gives up after the configured attempts", func(t *testing.T) {
		// Given: a repository where every code is taken
		repo := &mockSessionRepo{}
		repo.On("Reserve", mock.Anything, mock.AnythingOfType("*entity.Session")).
			Return(apperror.ErrCodeTaken).
			Times(3)

		allocator := NewCodeAllocator(repo, Options{CodeAttempts: 3})

		// When: allocating
		session, err := allocator.Allocate(context.Background(), buildFor("alice"))

		// Then: ErrCodeSpaceExhausted is returned after three tries
		require.ErrorIs(t, err, apperror.ErrCodeSpaceExhausted)
		assert.Nil(t, session)
		repo.AssertExpectations(t)
	})

	t.Run("Storage errors are not retried", func(t *testing.T) {
		repo := &mockSessionRepo{}
		repo.On("Reserve", mock.Anything, mock.AnythingOfType("*entity.Session")).
			Return(errRedisDown).
			Once()

		allocator := NewCodeAllocator(repo, Options{})

		_, err := allocator.Allocate(context.Background(), buildFor("alice"))

		require.ErrorIs(t, err, errRedisDown)
		repo.AssertExpectations(t)
	})
}
