package entity

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tacticwar-backend/internal/apperror"
)

func TestDocument_Validate(t *testing.T) {
	t.Run("Accepts any well-formed json", func(t *testing.T) {
		for _, raw := range []string{`{}`, `[1,2]`, `"x"`, `12`, `null`, ``} {
			assert.NoError(t, Document(raw).Validate(64), raw)
		}
	})

	t.Run("Rejects malformed json", func(t *testing.T) {
		err := Document(`{"turn":`).Validate(64)

		require.ErrorIs(t, err, apperror.ErrInvalidDocument)
	})

	t.Run("Rejects documents over the limit", func(t *testing.T) {
		raw := `{"pad":"` + strings.Repeat("x", 100) + `"}`

		err := Document(raw).Validate(64)

		require.ErrorIs(t, err, apperror.ErrInvalidDocument)
		assert.Contains(t, err.Error(), "exceeds limit")
	})

	t.Run("Zero limit falls back to the default", func(t *testing.T) {
		assert.NoError(t, Document(`{"a":1}`).Validate(0))
	})
}

func TestDocument_ValidateObject(t *testing.T) {
	assert.NoError(t, Document(`{"mode":"duel"}`).ValidateObject(64))
	assert.NoError(t, Document(nil).ValidateObject(64))
	assert.ErrorIs(t, Document(`[1]`).ValidateObject(64), apperror.ErrInvalidDocument)
}

func TestDocument_TurnColor(t *testing.T) {
	assert.Equal(t, ColorGuest, Document(`{"turn":"red","cells":[]}`).TurnColor())
	assert.Empty(t, Document(`{"turn":1}`).TurnColor())
	assert.Empty(t, Document(`{"nested":{"turn":"red"}}`).TurnColor())
	assert.Empty(t, Document(nil).TurnColor())
}

func TestDocument_JSON(t *testing.T) {
	t.Run("Embedded document is written verbatim", func(t *testing.T) {
		// Given: a struct carrying a raw document
		payload := struct {
			Board Document `json:"board"`
		}{Board: Document(`{"turn":"blue"}`)}

		// When: it is marshaled
		data, err := json.Marshal(payload)

		// Then: the document is inlined as json, not base64
		require.NoError(t, err)
		assert.JSONEq(t, `{"board":{"turn":"blue"}}`, string(data))
	})

	t.Run("Empty document is written as null", func(t *testing.T) {
		data, err := json.Marshal(struct {
			Board Document `json:"board"`
		}{})

		require.NoError(t, err)
		assert.JSONEq(t, `{"board":null}`, string(data))
	})

	t.Run("Unmarshal keeps the raw bytes", func(t *testing.T) {
		var payload struct {
			Move Document `json:"move"`
		}

		err := json.Unmarshal([]byte(`{"move":{"unit":7}}`), &payload)

		require.NoError(t, err)
		assert.JSONEq(t, `{"unit":7}`, string(payload.Move))
	})
}
