package rest

import (
	"errors"
	"net/http"

	"github.com/rocketscienceinc/tacticwar-backend/internal/apperror"
)

const (
	kindNotFound        = "not_found"
	kindAlreadyFull     = "already_full"
	kindSessionClosed   = "session_closed"
	kindNotReady        = "not_ready"
	kindVersionConflict = "version_conflict"
	kindSelfJoin        = "self_join"
	kindInvalidDocument = "invalid_document"
	kindBadRequest      = "bad_request"
	kindNotYourTurn     = "not_your_turn"
	kindNotParticipant  = "not_participant"
	kindInternal        = "internal"
)

var errorKinds = []struct {
	err    error
	kind   string
	status int
}{
	{apperror.ErrNotFound, kindNotFound, http.StatusNotFound},
	{apperror.ErrAlreadyFull, kindAlreadyFull, http.StatusConflict},
	{apperror.ErrSessionClosed, kindSessionClosed, http.StatusConflict},
	{apperror.ErrNotReady, kindNotReady, http.StatusConflict},
	{apperror.ErrVersionConflict, kindVersionConflict, http.StatusConflict},
	{apperror.ErrSelfJoin, kindSelfJoin, http.StatusBadRequest},
	{apperror.ErrInvalidDocument, kindInvalidDocument, http.StatusBadRequest},
	{apperror.ErrEmptyIdentity, kindBadRequest, http.StatusBadRequest},
	{apperror.ErrNotYourTurn, kindNotYourTurn, http.StatusForbidden},
	{apperror.ErrNotParticipant, kindNotParticipant, http.StatusForbidden},
}

// classify maps an error to its wire kind and HTTP status. Anything unknown is internal.
func classify(err error) (string, int) {
	for _, known := range errorKinds {
		if errors.Is(err, known.err) {
			return known.kind, known.status
		}
	}

	return kindInternal, http.StatusInternalServerError
}
