package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
	"github.com/rocketscienceinc/tacticwar-backend/internal/repository"
	"github.com/rocketscienceinc/tacticwar-backend/testing/suite"
)

type broker struct {
	repo      repository.SessionRepository
	lifecycle *LifecycleService
	arbiter   *TurnArbiter
	relay     *BoardRelay
}

func newBroker(t *testing.T) (context.Context, *broker) {
	t.Helper()

	ctx, st := suite.NewSQLite(t)
	repo := repository.NewSQLiteSessionRepository(st.SQL)
	opts := Options{MaxDocumentBytes: 1024}

	return ctx, &broker{
		repo:      repo,
		lifecycle: NewLifecycleService(repo, NewCodeAllocator(repo, opts), opts),
		arbiter:   NewTurnArbiter(repo, opts),
		relay:     NewBoardRelay(repo, opts),
	}
}

// playing creates alice's session, lets bob join and starts it with firstTurn to move.
func (that *broker) playing(ctx context.Context, t *testing.T, firstTurn string) string {
	t.Helper()

	session, err := that.lifecycle.CreateSession(ctx, "alice", entity.Document(`{"map":"delta"}`))
	require.NoError(t, err)

	_, err = that.lifecycle.JoinSession(ctx, session.Code, "bob")
	require.NoError(t, err)

	that.lifecycle.pick = func(int) int {
		if firstTurn == "alice" {
			return 0
		}
		return 1
	}

	turn, err := that.lifecycle.StartSession(ctx, session.Code)
	require.NoError(t, err)
	require.Equal(t, firstTurn, turn)

	return session.Code
}

func (that *broker) status(ctx context.Context, t *testing.T, code string) *entity.Session {
	t.Helper()

	session, err := that.relay.GetStatus(ctx, code)
	require.NoError(t, err)

	return session
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Reserve(ctx context.Context, session *entity.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepo) GetByCode(ctx context.Context, code string) (*entity.Session, error) {
	args := m.Called(ctx, code)

	session, _ := args.Get(0).(*entity.Session)

	return session, args.Error(1)
}

func (m *mockSessionRepo) Update(ctx context.Context, session *entity.Session, expectedVersion int64) error {
	return m.Called(ctx, session, expectedVersion).Error(0)
}

func (m *mockSessionRepo) List(ctx context.Context) ([]*entity.Session, error) {
	args := m.Called(ctx)

	sessions, _ := args.Get(0).([]*entity.Session)

	return sessions, args.Error(1)
}

func (m *mockSessionRepo) DeleteByCode(ctx context.Context, code string, expectedVersion int64) error {
	return m.Called(ctx, code, expectedVersion).Error(0)
}

var fixedNow = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
