package repository

import (
	"context"

	"photo-market/internal/domain/model"
)

// SessionStore holds in-flight ad registrations, one per Telegram user.
// Get returns model.EmptySession when the user has no dialogue.
type SessionStore interface {
	Get(ctx context.Context, tgID int64) (*model.RegistrationSession, error)
	Set(ctx context.Context, tgID int64, s *model.RegistrationSession) error
	Clear(ctx context.Context, tgID int64) error
}

// SessionLocker serializes updates of one user so read-modify-write on a
// session is atomic. The returned func releases the lock.
type SessionLocker interface {
	Lock(ctx context.Context, tgID int64) (unlock func(), err error)
}
