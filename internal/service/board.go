package service

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

// BoardRelay keeps the latest board snapshot for the opponent to poll.
type BoardRelay struct {
	repo    sessionRepo
	mutator *mutator

	maxDocumentBytes int
}

func NewBoardRelay(repo sessionRepo, opts Options) *BoardRelay {
	opts = opts.withDefaults()

	return &BoardRelay{
		repo:             repo,
		mutator:          newMutator(repo, opts),
		maxDocumentBytes: opts.MaxDocumentBytes,
	}
}

// UpdateBoard stores board as the session snapshot. A turn color inside the snapshot moves
// CurrentTurn to the participant owning that color.
func (that *BoardRelay) UpdateBoard(ctx context.Context, code, player string, board entity.Document, expectedVersion int64) (*entity.Session, error) {
	if err := board.Validate(that.maxDocumentBytes); err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}

	session, err := that.mutator.apply(ctx, code, expectedVersion, func(session *entity.Session) error {
		return session.UpdateBoard(player, board)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}

	return session, nil
}

func (that *BoardRelay) GetStatus(ctx context.Context, code string) (*entity.Session, error) {
	session, err := that.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}
