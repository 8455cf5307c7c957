package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/infra/logging"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ AuthUseCase = (*authUC)(nil)

// UserClaims is the payload of an API access token.
type UserClaims struct {
	TelegramID int64  `json:"tg"`
	Phone      string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// UserID is the subject of the token.
func (c *UserClaims) UserID() string { return c.Subject }

// AuthUseCase signs in Telegram users for the REST API.
type AuthUseCase interface {
	// AuthenticateTelegram refreshes a known user or registers a new one (phone required)
	// and returns a signed token.
	AuthenticateTelegram(ctx context.Context, tgID int64, p model.UserProfile) (*model.User, string, error)
	Verify(token string) (*UserClaims, error)
}

type authUC struct {
	users  UserUseCase
	secret []byte
	ttl    time.Duration
	log    *zerolog.Logger
}

func NewAuthUseCase(users UserUseCase, secret string, ttl time.Duration, logger *zerolog.Logger) *authUC {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &authUC{users: users, secret: []byte(secret), ttl: ttl, log: logger}
}

func (u *authUC) AuthenticateTelegram(ctx context.Context, tgID int64, p model.UserProfile) (*model.User, string, error) {
	defer logging.TraceDuration(u.log, "AuthUC.AuthenticateTelegram")()
	if len(u.secret) == 0 {
		return nil, "", errors.New("auth: jwt secret not configured")
	}
	if tgID <= 0 {
		return nil, "", domain.ErrInvalidArgument
	}

	existing, err := u.users.FindByTelegramID(ctx, tgID)
	if err != nil {
		return nil, "", err
	}
	if existing == nil && model.NormalizePhone(p.PhoneNumber) == "" {
		return nil, "", domain.ErrPhoneRequired
	}
	user, err := u.users.CreateOrUpdate(ctx, tgID, p)
	if err != nil {
		return nil, "", err
	}
	if user.IsBlocked {
		return nil, "", domain.ErrUserBlocked
	}

	tok, err := u.sign(user)
	if err != nil {
		return nil, "", err
	}
	return user, tok, nil
}

func (u *authUC) sign(user *model.User) (string, error) {
	now := time.Now()
	claims := UserClaims{
		TelegramID: user.TelegramID,
		Phone:      user.PhoneNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        strconv.FormatInt(now.UnixNano(), 36),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(u.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (u *authUC) Verify(token string) (*UserClaims, error) {
	claims := &UserClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return u.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
