package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

type SessionUseCase interface {
	CreateSession(ctx context.Context, host string, settings entity.Document) (*entity.Session, error)
	JoinSession(ctx context.Context, code, guest string) (*entity.Session, error)
	StartSession(ctx context.Context, code string) (string, error)
	GetStatus(ctx context.Context, code string) (*entity.Session, error)

	UpdateBoard(ctx context.Context, code, player string, board entity.Document, expectedVersion int64) (*entity.Session, error)
	MakeMove(ctx context.Context, code, player string, move entity.Document, endTurn bool, expectedVersion int64) (*entity.Session, error)

	FinishSession(ctx context.Context, code string) error
	AbortSession(ctx context.Context, code string) error
}

type lifecycleService interface {
	CreateSession(ctx context.Context, host string, settings entity.Document) (*entity.Session, error)
	JoinSession(ctx context.Context, code, guest string) (*entity.Session, error)
	StartSession(ctx context.Context, code string) (string, error)
	FinishSession(ctx context.Context, code string) error
	AbortSession(ctx context.Context, code string) error
}

type turnArbiter interface {
	MakeMove(ctx context.Context, code, player string, move entity.Document, endTurn bool, expectedVersion int64) (*entity.Session, error)
}

type boardRelay interface {
	UpdateBoard(ctx context.Context, code, player string, board entity.Document, expectedVersion int64) (*entity.Session, error)
	GetStatus(ctx context.Context, code string) (*entity.Session, error)
}

type sessionUseCase struct {
	logger *slog.Logger

	lifecycle lifecycleService
	arbiter   turnArbiter
	relay     boardRelay
}

func NewSessionUseCase(logger *slog.Logger, lifecycle lifecycleService, arbiter turnArbiter, relay boardRelay) SessionUseCase {
	return &sessionUseCase{
		logger: logger.With("component", "session"),

		lifecycle: lifecycle,
		arbiter:   arbiter,
		relay:     relay,
	}
}

func (that *sessionUseCase) CreateSession(ctx context.Context, host string, settings entity.Document) (*entity.Session, error) {
	log := that.logger.With("method", "CreateSession")

	session, err := that.lifecycle.CreateSession(ctx, normalize(host), settings)
	if err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}

	log.Info("session created", "code", session.Code, "host", session.Host)

	return session, nil
}

func (that *sessionUseCase) JoinSession(ctx context.Context, code, guest string) (*entity.Session, error) {
	log := that.logger.With("method", "JoinSession")

	session, err := that.lifecycle.JoinSession(ctx, normalize(code), normalize(guest))
	if err != nil {
		return nil, fmt.Errorf("could not join session: %w", err)
	}

	log.Info("guest joined", "code", session.Code, "guest", session.Guest)

	return session, nil
}

func (that *sessionUseCase) StartSession(ctx context.Context, code string) (string, error) {
	log := that.logger.With("method", "StartSession")

	code = normalize(code)

	firstTurn, err := that.lifecycle.StartSession(ctx, code)
	if err != nil {
		return "", fmt.Errorf("could not start session: %w", err)
	}

	log.Info("session started", "code", code, "first_turn", firstTurn)

	return firstTurn, nil
}

func (that *sessionUseCase) GetStatus(ctx context.Context, code string) (*entity.Session, error) {
	session, err := that.relay.GetStatus(ctx, normalize(code))
	if err != nil {
		return nil, fmt.Errorf("could not get session status: %w", err)
	}

	return session, nil
}

func (that *sessionUseCase) UpdateBoard(ctx context.Context, code, player string, board entity.Document, expectedVersion int64) (*entity.Session, error) {
	log := that.logger.With("method", "UpdateBoard")

	session, err := that.relay.UpdateBoard(ctx, normalize(code), normalize(player), board, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("could not update board: %w", err)
	}

	log.Debug("board updated", "code", session.Code, "player", player, "version", session.Version)

	return session, nil
}

func (that *sessionUseCase) MakeMove(ctx context.Context, code, player string, move entity.Document, endTurn bool, expectedVersion int64) (*entity.Session, error) {
	log := that.logger.With("method", "MakeMove")

	session, err := that.arbiter.MakeMove(ctx, normalize(code), normalize(player), move, endTurn, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("could not make move: %w", err)
	}

	log.Debug("move accepted", "code", session.Code, "player", player, "end_turn", endTurn, "current_turn", session.CurrentTurn)

	return session, nil
}

func (that *sessionUseCase) FinishSession(ctx context.Context, code string) error {
	log := that.logger.With("method", "FinishSession")

	code = normalize(code)

	if err := that.lifecycle.FinishSession(ctx, code); err != nil {
		return fmt.Errorf("could not finish session: %w", err)
	}

	log.Info("session finished", "code", code)

	return nil
}

func (that *sessionUseCase) AbortSession(ctx context.Context, code string) error {
	log := that.logger.With("method", "AbortSession")

	code = normalize(code)

	if err := that.lifecycle.AbortSession(ctx, code); err != nil {
		return fmt.Errorf("could not abort session: %w", err)
	}

	log.Info("session aborted", "code", code)

	return nil
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}
