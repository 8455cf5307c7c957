package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore keeps registration sessions as JSON under reg_session:<tgID>.
// Photo bytes are not serialized, so it must be paired with object storage
// that turns every photo into a URL before the session is saved.
type SessionStore struct {
	client RedisClient
	ttl    time.Duration
}

func NewSessionStore(client RedisClient, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func SessionKey(tgID int64) string {
	return fmt.Sprintf("reg_session:%d", tgID)
}

func (s *SessionStore) Get(ctx context.Context, tgID int64) (*model.RegistrationSession, error) {
	data, err := s.client.Get(ctx, SessionKey(tgID))
	if errors.Is(err, ErrNil) {
		return model.EmptySession(tgID), nil
	}
	if err != nil {
		return nil, err
	}
	var sess model.RegistrationSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("decode session %d: %w", tgID, err)
	}
	if !sess.Step.Valid() {
		return model.EmptySession(tgID), nil
	}
	return &sess, nil
}

func (s *SessionStore) Set(ctx context.Context, tgID int64, sess *model.RegistrationSession) error {
	if !sess.Active() {
		return s.Clear(ctx, tgID)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, SessionKey(tgID), data, s.ttl)
}

func (s *SessionStore) Clear(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, SessionKey(tgID))
}
