package service

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

// TurnArbiter enforces turn ownership. Move payloads are relayed as they are.
type TurnArbiter struct {
	mutator *mutator

	maxDocumentBytes int
}

func NewTurnArbiter(repo sessionRepo, opts Options) *TurnArbiter {
	opts = opts.withDefaults()

	return &TurnArbiter{
		mutator:          newMutator(repo, opts),
		maxDocumentBytes: opts.MaxDocumentBytes,
	}
}

// MakeMove records move as the latest action of player and passes the turn when endTurn is set.
// expectedVersion pins the session version the client based the move on; 0 means latest.
func (that *TurnArbiter) MakeMove(ctx context.Context, code, player string, move entity.Document, endTurn bool, expectedVersion int64) (*entity.Session, error) {
	if err := move.Validate(that.maxDocumentBytes); err != nil {
		return nil, fmt.Errorf("move: %w", err)
	}

	session, err := that.mutator.apply(ctx, code, expectedVersion, func(session *entity.Session) error {
		return session.MakeMove(player, move, endTurn)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to make move: %w", err)
	}

	return session, nil
}
