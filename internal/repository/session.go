package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"

	"github.com/rocketscienceinc/tacticwar-backend/internal/apperror"
	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

const (
	sessionKeyPrefix = "session:"
	scanBatchSize    = 100
)

// SessionRepository is the only path through which session records change. Writes are
// conditional: Reserve only succeeds for an unused code, Update and DeleteByCode only succeed
// against the version the caller read.
type SessionRepository interface {
	Reserve(ctx context.Context, session *entity.Session) error
	GetByCode(ctx context.Context, code string) (*entity.Session, error)
	Update(ctx context.Context, session *entity.Session, expectedVersion int64) error
	List(ctx context.Context) ([]*entity.Session, error)
	DeleteByCode(ctx context.Context, code string, expectedVersion int64) error
}

type dbSession struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) SessionRepository {
	return &dbSession{
		client: client,
	}
}

func sessionKey(code string) string {
	return sessionKeyPrefix + code
}

func (that *dbSession) Reserve(ctx context.Context, session *entity.Session) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	reserved, err := that.client.SetNX(ctx, sessionKey(session.Code), sessionJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve session: %w", err)
	}

	if !reserved {
		return fmt.Errorf("%w: %s", apperror.ErrCodeTaken, session.Code)
	}

	return nil
}

func (that *dbSession) GetByCode(ctx context.Context, code string) (*entity.Session, error) {
	response, err := that.client.Get(ctx, sessionKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session by code: %w", err)
	}

	return decodeSession(response)
}

func (that *dbSession) Update(ctx context.Context, session *entity.Session, expectedVersion int64) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	key := sessionKey(session.Code)

	return that.compareAndSwap(ctx, key, expectedVersion, func(pipe redis.Pipeliner) {
		pipe.Set(ctx, key, sessionJSON, 0)
	})
}

func (that *dbSession) List(ctx context.Context) ([]*entity.Session, error) {
	var keys []string

	iter := that.client.Scan(ctx, 0, sessionKeyPrefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}

	sessions := make([]*entity.Session, 0, len(keys))

	for start := 0; start < len(keys); start += scanBatchSize {
		end := min(start+scanBatchSize, len(keys))

		values, err := that.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load sessions: %w", err)
		}

		for _, value := range values {
			// deleted between SCAN and MGET
			raw, ok := value.(string)
			if !ok {
				continue
			}

			session, err := decodeSession([]byte(raw))
			if err != nil {
				return nil, err
			}

			sessions = append(sessions, session)
		}
	}

	return sessions, nil
}

func (that *dbSession) DeleteByCode(ctx context.Context, code string, expectedVersion int64) error {
	key := sessionKey(code)

	return that.compareAndSwap(ctx, key, expectedVersion, func(pipe redis.Pipeliner) {
		pipe.Del(ctx, key)
	})
}

// compareAndSwap runs write inside MULTI/EXEC while the key is WATCHed, so a concurrent writer
// makes EXEC fail instead of being overwritten.
func (that *dbSession) compareAndSwap(ctx context.Context, key string, expectedVersion int64, write func(pipe redis.Pipeliner)) error {
	txf := func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return apperror.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to read session: %w", err)
		}

		if version := gjson.GetBytes(stored, "version").Int(); version != expectedVersion {
			return fmt.Errorf("%w: stored version %d, expected %d", apperror.ErrVersionConflict, version, expectedVersion)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			write(pipe)
			return nil
		})

		return err
	}

	err := that.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: transaction aborted", apperror.ErrVersionConflict)
	}

	if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrVersionConflict) {
		return err
	}

	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	return nil
}

func decodeSession(raw []byte) (*entity.Session, error) {
	var session entity.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}
