package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

var errNegativeVersion = errors.New("version must not be negative")

type sessionUseCase interface {
	CreateSession(ctx context.Context, host string, settings entity.Document) (*entity.Session, error)
	JoinSession(ctx context.Context, code, guest string) (*entity.Session, error)
	StartSession(ctx context.Context, code string) (string, error)
	GetStatus(ctx context.Context, code string) (*entity.Session, error)
	UpdateBoard(ctx context.Context, code, player string, board entity.Document, expectedVersion int64) (*entity.Session, error)
	MakeMove(ctx context.Context, code, player string, move entity.Document, endTurn bool, expectedVersion int64) (*entity.Session, error)
	FinishSession(ctx context.Context, code string) error
	AbortSession(ctx context.Context, code string) error
}

type sessionHandlers struct {
	logger       *slog.Logger
	useCase      sessionUseCase
	maxBodyBytes int64
}

func newSessionHandlers(logger *slog.Logger, useCase sessionUseCase, maxBodyBytes int64) *sessionHandlers {
	return &sessionHandlers{
		logger:       logger,
		useCase:      useCase,
		maxBodyBytes: maxBodyBytes,
	}
}

func (that *sessionHandlers) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !that.decode(w, r, &req) {
		return
	}

	session, err := that.useCase.CreateSession(r.Context(), req.HostName, req.Settings)
	if err != nil {
		that.fail(w, r, err)
		return
	}

	that.respond(w, http.StatusCreated, createSessionResponse{
		Code:    session.Code,
		Seed:    session.Seed,
		Version: session.Version,
	})
}

func (that *sessionHandlers) joinSession(w http.ResponseWriter, r *http.Request) {
	var req joinSessionRequest
	if !that.decode(w, r, &req) {
		return
	}

	session, err := that.useCase.JoinSession(r.Context(), chi.URLParam(r, "code"), req.GuestName)
	if err != nil {
		that.fail(w, r, err)
		return
	}

	that.respond(w, http.StatusOK, joinSessionResponse{
		Settings: session.Settings,
		HostName: session.Host,
		Seed:     session.Seed,
		Version:  session.Version,
	})
}

func (that *sessionHandlers) startSession(w http.ResponseWriter, r *http.Request) {
	firstTurn, err := that.useCase.StartSession(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		that.fail(w, r, err)
		return
	}

	that.respond(w, http.StatusOK, startSessionResponse{FirstTurn: firstTurn})
}

func (that *sessionHandlers) getStatus(w http.ResponseWriter, r *http.Request) {
	session, err := that.useCase.GetStatus(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		that.fail(w, r, err)
		return
	}

	that.respond(w, http.StatusOK, newStatusResponse(session))
}

func (that *sessionHandlers) updateBoard(w http.ResponseWriter, r *http.Request) {
	var req updateBoardRequest
	if !that.decode(w, r, &req) {
		return
	}

	if req.Version < 0 {
		that.badRequest(w, errNegativeVersion)
		return
	}

	session, err := that.useCase.UpdateBoard(r.Context(), chi.URLParam(r, "code"), req.Username, req.BoardState, req.Version)
	if err != nil {
		that.fail(w, r, err)
		return
	}

	that.respond(w, http.StatusOK, okResponse{Status: "ok", Version: session.Version})
}

func (that *sessionHandlers) makeMove(w http.ResponseWriter, r *http.Request) {
	var req makeMoveRequest
	if !that.decode(w, r, &req) {
		return
	}

	if req.Version < 0 {
		that.badRequest(w, errNegativeVersion)
		return
	}

	session, err := that.useCase.MakeMove(r.Context(), chi.URLParam(r, "code"), req.Username, req.MoveData, req.EndTurn, req.Version)
	if err != nil {
		that.fail(w, r, err)
		return
	}

	that.respond(w, http.StatusOK, okResponse{Status: "ok", Version: session.Version})
}

func (that *sessionHandlers) finishSession(w http.ResponseWriter, r *http.Request) {
	if err := that.useCase.FinishSession(r.Context(), chi.URLParam(r, "code")); err != nil {
		that.fail(w, r, err)
		return
	}

	that.respond(w, http.StatusOK, okResponse{Status: "ok"})
}

func (that *sessionHandlers) abortSession(w http.ResponseWriter, r *http.Request) {
	if err := that.useCase.AbortSession(r.Context(), chi.URLParam(r, "code")); err != nil {
		that.fail(w, r, err)
		return
	}

	that.respond(w, http.StatusOK, okResponse{Status: "ok"})
}

func (that *sessionHandlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, that.maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			that.badRequest(w, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}

		that.badRequest(w, fmt.Errorf("malformed request body: %w", err))
		return false
	}

	return true
}

func (that *sessionHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind, status := classify(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		message = "internal error"
	}

	that.respond(w, status, errorResponse{Error: message, Kind: kind})
}

func (that *sessionHandlers) badRequest(w http.ResponseWriter, err error) {
	that.respond(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: kindBadRequest})
}

func (that *sessionHandlers) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("could not write response", "error", err)
	}
}
