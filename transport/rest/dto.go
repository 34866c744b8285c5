package rest

import (
	"time"

	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

type createSessionRequest struct {
	HostName string          `json:"host_name"`
	Settings entity.Document `json:"settings"`
}

type createSessionResponse struct {
	Code    string `json:"code"`
	Seed    int    `json:"seed"`
	Version int64  `json:"version"`
}

type joinSessionRequest struct {
	GuestName string `json:"guest_name"`
}

type joinSessionResponse struct {
	Settings entity.Document `json:"settings"`
	HostName string          `json:"host_name"`
	Seed     int             `json:"seed"`
	Version  int64           `json:"version"`
}

type startSessionResponse struct {
	FirstTurn string `json:"first_turn"`
}

type statusResponse struct {
	Status      string          `json:"status"`
	HostName    string          `json:"host_name"`
	GuestName   string          `json:"guest_name"`
	CurrentTurn string          `json:"current_turn"`
	LastMove    entity.Document `json:"last_move"`
	BoardState  entity.Document `json:"board_state"`
	Seed        int             `json:"seed"`
	Version     int64           `json:"version"`
	LastUpdate  time.Time       `json:"last_update"`
}

func newStatusResponse(session *entity.Session) statusResponse {
	return statusResponse{
		Status:      session.Status,
		HostName:    session.Host,
		GuestName:   session.Guest,
		CurrentTurn: session.CurrentTurn,
		LastMove:    session.LastMove,
		BoardState:  session.BoardState,
		Seed:        session.Seed,
		Version:     session.Version,
		LastUpdate:  session.LastUpdate,
	}
}

type updateBoardRequest struct {
	Username   string          `json:"username"`
	BoardState entity.Document `json:"board_state"`
	Version    int64           `json:"version"`
}

type makeMoveRequest struct {
	Username string          `json:"username"`
	MoveData entity.Document `json:"move_data"`
	EndTurn  bool            `json:"end_turn"`
	Version  int64           `json:"version"`
}

type okResponse struct {
	Status  string `json:"status"`
	Version int64  `json:"version,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
