package entity

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/rocketscienceinc/tacticwar-backend/internal/apperror"
)

// DefaultMaxDocumentBytes - used when the caller does not configure a limit.
const DefaultMaxDocumentBytes = 256 << 10

// Document is an opaque JSON value relayed between players. The broker never looks inside
// except to read the turn color of a board snapshot.
type Document []byte

var emptyObject = Document(`{}`)

func (that Document) MarshalJSON() ([]byte, error) {
	if that.IsEmpty() {
		return []byte("null"), nil
	}

	return that, nil
}

func (that *Document) UnmarshalJSON(data []byte) error {
	if that == nil {
		return fmt.Errorf("%w: unmarshal into nil document", apperror.ErrInvalidDocument)
	}

	*that = append((*that)[:0], data...)

	return nil
}

// IsEmpty reports whether the document is absent or JSON null.
func (that Document) IsEmpty() bool {
	trimmed := bytes.TrimSpace(that)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Validate checks that the document is well-formed JSON no larger than maxBytes.
func (that Document) Validate(maxBytes int) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}

	if len(that) > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", apperror.ErrInvalidDocument, len(that), maxBytes)
	}

	if that.IsEmpty() {
		return nil
	}

	if !gjson.ValidBytes(that) {
		return fmt.Errorf("%w: malformed json", apperror.ErrInvalidDocument)
	}

	return nil
}

// ValidateObject is Validate plus the requirement that a non-empty document is a JSON object.
func (that Document) ValidateObject(maxBytes int) error {
	if err := that.Validate(maxBytes); err != nil {
		return err
	}

	if !that.IsEmpty() && !gjson.ParseBytes(that).IsObject() {
		return fmt.Errorf("%w: expected a json object", apperror.ErrInvalidDocument)
	}

	return nil
}

// ObjectOrEmpty returns a copy of the document, substituting {} for an absent one.
func (that Document) ObjectOrEmpty() Document {
	if that.IsEmpty() {
		return append(Document(nil), emptyObject...)
	}

	return append(Document(nil), that...)
}

// TurnColor returns the top-level turn color token of a board snapshot, or "" when absent.
func (that Document) TurnColor() string {
	if that.IsEmpty() {
		return ""
	}

	result := gjson.GetBytes(that, BoardTurnKey)
	if result.Type != gjson.String {
		return ""
	}

	return result.Str
}
