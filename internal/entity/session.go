package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tacticwar-backend/internal/apperror"
)

const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
	StatusAborted  = "aborted"
)

const (
	// BoardTurnKey - top-level key of a board snapshot carrying the turn color.
	BoardTurnKey = "turn"

	ColorHost  = "blue"
	ColorGuest = "red"
)

const (
	CodeMin    = 100000
	CodeMax    = 999999
	SeedLimit  = 1000000
	CodeLength = 6
)

var ErrUnknownStatus = errors.New("unknown session status")

type Session struct {
	Code        string    `json:"code"`
	Host        string    `json:"host"`
	Guest       string    `json:"guest,omitempty"`
	Status      string    `json:"status"`
	Settings    Document  `json:"settings"`
	Seed        int       `json:"seed"`
	CurrentTurn string    `json:"current_turn"`
	LastMove    Document  `json:"last_move,omitempty"`
	BoardState  Document  `json:"board_state,omitempty"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdate  time.Time `json:"last_update"`
}

func NewSession(code, host string, settings Document, seed int, now time.Time) *Session {
	return &Session{
		Code:        code,
		Host:        host,
		Status:      StatusWaiting,
		Settings:    settings.ObjectOrEmpty(),
		Seed:        seed,
		CurrentTurn: host,
		Version:     1,
		CreatedAt:   now,
		LastUpdate:  now,
	}
}

func (that *Session) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Session) IsPlaying() bool {
	return that.Status == StatusPlaying
}

func (that *Session) IsTerminal() bool {
	return that.Status == StatusFinished || that.Status == StatusAborted
}

func (that *Session) HasGuest() bool {
	return that.Guest != ""
}

func (that *Session) IsParticipant(player string) bool {
	return player != "" && (player == that.Host || player == that.Guest)
}

// Opponent returns the other participant, or "" if player is not in the session.
func (that *Session) Opponent(player string) string {
	switch player {
	case "":
		return ""
	case that.Host:
		return that.Guest
	case that.Guest:
		return that.Host
	default:
		return ""
	}
}

func (that *Session) Join(guest string) error {
	if guest == "" {
		return apperror.ErrEmptyIdentity
	}

	if guest == that.Host {
		return apperror.ErrSelfJoin
	}

	if that.HasGuest() {
		return apperror.ErrAlreadyFull
	}

	if that.IsTerminal() {
		return apperror.ErrSessionClosed
	}

	that.Guest = guest

	return nil
}

// Start moves a waiting session into play. pick(2) selects the first player: 0 is the host.
// Starting an already playing session reports the current turn and changes nothing.
func (that *Session) Start(pick func(n int) int) (firstTurn string, changed bool, err error) {
	switch that.Status {
	case StatusPlaying:
		return that.CurrentTurn, false, nil
	case StatusFinished, StatusAborted:
		return "", false, apperror.ErrSessionClosed
	case StatusWaiting:
	default:
		return "", false, fmt.Errorf("%w: %s", ErrUnknownStatus, that.Status)
	}

	if !that.HasGuest() {
		return "", false, apperror.ErrNotReady
	}

	that.Status = StatusPlaying
	if pick(2) == 0 {
		that.CurrentTurn = that.Host
	} else {
		that.CurrentTurn = that.Guest
	}

	return that.CurrentTurn, true, nil
}

// Terminate moves the session into a terminal status. A session that is already terminal is
// left as it is.
func (that *Session) Terminate(status string) (bool, error) {
	if status != StatusFinished && status != StatusAborted {
		return false, fmt.Errorf("%w: %s is not terminal", ErrUnknownStatus, status)
	}

	if that.IsTerminal() {
		return false, nil
	}

	that.Status = status

	return true, nil
}

// MakeMove records the player's latest action and optionally hands the turn over. The host
// holds the turn from creation, so a waiting lobby accepts moves too.
// Nothing is modified when an error is returned.
func (that *Session) MakeMove(player string, move Document, endTurn bool) error {
	if player == "" || player != that.CurrentTurn {
		return apperror.ErrNotYourTurn
	}

	if that.IsTerminal() {
		return apperror.ErrSessionClosed
	}

	that.LastMove = append(Document(nil), move...)

	// without a guest there is nobody to hand the turn to
	if opponent := that.Opponent(player); endTurn && opponent != "" {
		that.CurrentTurn = opponent
	}

	return nil
}

// UpdateBoard replaces the board snapshot. When the snapshot names whose turn it is by color,
// CurrentTurn follows it.
func (that *Session) UpdateBoard(player string, board Document) error {
	if !that.IsParticipant(player) {
		return apperror.ErrNotParticipant
	}

	if that.IsTerminal() {
		return apperror.ErrSessionClosed
	}

	that.BoardState = append(Document(nil), board...)

	if owner := that.ResolveColor(board.TurnColor()); owner != "" {
		that.CurrentTurn = owner
	}

	return nil
}

// ResolveColor maps a color token to the participant it stands for.
func (that *Session) ResolveColor(color string) string {
	switch color {
	case ColorHost:
		return that.Host
	case ColorGuest:
		return that.Guest
	default:
		return ""
	}
}

// Touch marks the session as modified.
func (that *Session) Touch(now time.Time) {
	that.Version++
	that.LastUpdate = now
}

func (that *Session) Clone() *Session {
	clone := *that
	clone.Settings = append(Document(nil), that.Settings...)
	clone.LastMove = append(Document(nil), that.LastMove...)
	clone.BoardState = append(Document(nil), that.BoardState...)

	return &clone
}
