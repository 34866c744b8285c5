package service

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tacticwar-backend/internal/apperror"
	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

func TestTurnArbiter_MakeMove(t *testing.T) {
	t.Run("End of turn flips the turn once", func(t *testing.T) {
		ctx, b := newBroker(t)
		code := b.playing(ctx, t, "alice")

		// When: alice moves and ends her turn
		session, err := b.arbiter.MakeMove(ctx, code, "alice", entity.Document(`{"unit":1,"to":[3,4]}`), true, 0)

		// Then: bob holds the turn and the move is readable
		require.NoError(t, err)
		assert.Equal(t, "bob", session.CurrentTurn)

		stored := b.status(ctx, t, code)
		assert.Equal(t, "bob", stored.CurrentTurn)
		assert.JSONEq(t, `{"unit":1,"to":[3,4]}`, string(stored.LastMove))
	})

	t.Run("Several moves within one turn", func(t *testing.T) {
		ctx, b := newBroker(t)
		code := b.playing(ctx, t, "bob")

		// When: bob moves twice without ending the turn
		_, err := b.arbiter.MakeMove(ctx, code, "bob", entity.Document(`{"step":1}`), false, 0)
		require.NoError(t, err)
		_, err = b.arbiter.MakeMove(ctx, code, "bob", entity.Document(`{"step":2}`), false, 0)
		require.NoError(t, err)

		// Then: the turn is still his and only the last move is kept
		stored := b.status(ctx, t, code)
		assert.Equal(t, "bob", stored.CurrentTurn)
		assert.JSONEq(t, `{"step":2}`, string(stored.LastMove))
	})

	t.Run("Out of turn move changes nothing", func(t *testing.T) {
		ctx, b := newBroker(t)
		code := b.playing(ctx, t, "alice")
		_, err := b.arbiter.MakeMove(ctx, code, "alice", entity.Document(`{"step":1}`), false, 0)
		require.NoError(t, err)
		before := b.status(ctx, t, code)

		// When: bob and a stranger try to move
		_, errBob := b.arbiter.MakeMove(ctx, code, "bob", entity.Document(`{"step":9}`), true, 0)
		_, errStranger := b.arbiter.MakeMove(ctx, code, "mallory", entity.Document(`{"step":9}`), true, 0)

		// Then: both are rejected and the record is byte for byte the same
		require.ErrorIs(t, errBob, apperror.ErrNotYourTurn)
		require.ErrorIs(t, errStranger, apperror.ErrNotYourTurn)
		assert.Equal(t, before, b.status(ctx, t, code))
	})

	t.Run("Racing end-of-turn moves flip only once", func(t *testing.T) {
		ctx, b := newBroker(t)
		code := b.playing(ctx, t, "alice")
		before := b.status(ctx, t, code)

		const attempts = 8

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)

		// When: alice's client fires the same end-of-turn move several times at once
		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()

				_, err := b.arbiter.MakeMove(ctx, code, "alice", entity.Document(`{"end":true}`), true, 0)
				if err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
			}()
		}
		wg.Wait()

		// Then: one move is accepted and bob holds the turn
		assert.Equal(t, 1, accepted)

		stored := b.status(ctx, t, code)
		assert.Equal(t, "bob", stored.CurrentTurn)
		assert.Equal(t, before.Version+1, stored.Version)
	})

	t.Run("Stale version is rejected", func(t *testing.T) {
		ctx, b := newBroker(t)
		code := b.playing(ctx, t, "alice")
		seen := b.status(ctx, t, code).Version

		_, err := b.arbiter.MakeMove(ctx, code, "alice", entity.Document(`{"step":1}`), false, seen)
		require.NoError(t, err)

		// When: alice sends another move based on the version she saw before her first one
		_, err = b.arbiter.MakeMove(ctx, code, "alice", entity.Document(`{"step":2}`), true, seen)

		// Then: it conflicts and the first move stands
		require.ErrorIs(t, err, apperror.ErrVersionConflict)

		stored := b.status(ctx, t, code)
		assert.JSONEq(t, `{"step":1}`, string(stored.LastMove))
		assert.Equal(t, "alice", stored.CurrentTurn)
	})

	t.Run("Guest moving in a waiting lobby fails with ErrNotYourTurn", func(t *testing.T) {
		ctx, b := newBroker(t)

		// Given: alice's lobby with bob seated but not started
		created, err := b.lifecycle.CreateSession(ctx, "alice", nil)
		require.NoError(t, err)
		_, err = b.lifecycle.JoinSession(ctx, created.Code, "bob")
		require.NoError(t, err)
		before := b.status(ctx, t, created.Code)

		// When: bob moves although the turn is alice's
		_, err = b.arbiter.MakeMove(ctx, created.Code, "bob", entity.Document(`{}`), true, 0)

		// Then: it is out of turn and nothing is written
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, before, b.status(ctx, t, created.Code))
	})

	t.Run("Host may move in a waiting lobby", func(t *testing.T) {
		ctx, b := newBroker(t)

		created, err := b.lifecycle.CreateSession(ctx, "alice", nil)
		require.NoError(t, err)

		session, err := b.arbiter.MakeMove(ctx, created.Code, "alice", entity.Document(`{"deploy":1}`), false, 0)

		require.NoError(t, err)
		assert.Equal(t, entity.StatusWaiting, session.Status)
		assert.JSONEq(t, `{"deploy":1}`, string(session.LastMove))
	})

	t.Run("Out of turn move after finish fails with ErrNotYourTurn", func(t *testing.T) {
		ctx, b := newBroker(t)
		code := b.playing(ctx, t, "alice")
		require.NoError(t, b.lifecycle.FinishSession(ctx, code))

		// When: bob, who never held the turn, and alice both move after the end
		_, errBob := b.arbiter.MakeMove(ctx, code, "bob", entity.Document(`{}`), true, 0)
		_, errAlice := b.arbiter.MakeMove(ctx, code, "alice", entity.Document(`{}`), true, 0)

		// Then: bob is out of turn, alice finds the session closed
		require.ErrorIs(t, errBob, apperror.ErrNotYourTurn)
		require.ErrorIs(t, errAlice, apperror.ErrSessionClosed)
		assert.Equal(t, entity.StatusFinished, b.status(ctx, t, code).Status)
	})

	t.Run("Oversized move fails with ErrInvalidDocument", func(t *testing.T) {
		ctx, b := newBroker(t)
		code := b.playing(ctx, t, "alice")

		big := entity.Document(`{"pad":"` + strings.Repeat("x", 2048) + `"}`)
		_, err := b.arbiter.MakeMove(ctx, code, "alice", big, true, 0)

		require.ErrorIs(t, err, apperror.ErrInvalidDocument)
	})

	t.Run("Unknown code fails with ErrNotFound", func(t *testing.T) {
		ctx, b := newBroker(t)

		_, err := b.arbiter.MakeMove(ctx, "000000", "alice", entity.Document(`{}`), true, 0)

		require.ErrorIs(t, err, apperror.ErrNotFound)
	})
}
