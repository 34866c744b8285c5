package service

import (
	"context"
	"time"

	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

const (
	defaultCodeAttempts = 16
	defaultCASRetries   = 8
)

// Options tune the session services. Zero values fall back to defaults.
type Options struct {
	MaxDocumentBytes int
	CodeAttempts     int
	CASRetries       int
}

func (that Options) withDefaults() Options {
	if that.MaxDocumentBytes <= 0 {
		that.MaxDocumentBytes = entity.DefaultMaxDocumentBytes
	}

	if that.CodeAttempts <= 0 {
		that.CodeAttempts = defaultCodeAttempts
	}

	if that.CASRetries < 0 {
		that.CASRetries = 0
	} else if that.CASRetries == 0 {
		that.CASRetries = defaultCASRetries
	}

	return that
}

type sessionRepo interface {
	Reserve(ctx context.Context, session *entity.Session) error
	GetByCode(ctx context.Context, code string) (*entity.Session, error)
	Update(ctx context.Context, session *entity.Session, expectedVersion int64) error
	List(ctx context.Context) ([]*entity.Session, error)
	DeleteByCode(ctx context.Context, code string, expectedVersion int64) error
}

type clock func() time.Time
