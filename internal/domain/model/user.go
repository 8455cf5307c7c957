package model

import (
	"strings"
	"time"

	"photo-market/internal/domain"

	"github.com/google/uuid"
)

// DefaultFreeAds is the monthly free-ad allowance for non-premium users.
const DefaultFreeAds = 1

// User is a marketplace member identified by their Telegram account.
type User struct {
	ID           string    `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	PhoneNumber  string    `json:"phone_number"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Username     string    `json:"username,omitempty"`
	IsPremium    bool      `json:"is_premium"`
	FreeAdsCount int       `json:"free_ads_count"`
	IsBlocked    bool      `json:"is_blocked"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserProfile carries the Telegram-side fields used to create or refresh a user.
type UserProfile struct {
	PhoneNumber string
	FirstName   string
	LastName    string
	Username    string
}

func NewUser(id string, tgID int64, p UserProfile) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	phone := NormalizePhone(p.PhoneNumber)
	if phone == "" {
		return nil, domain.ErrPhoneRequired
	}
	now := time.Now()
	return &User{
		ID:           id,
		TelegramID:   tgID,
		PhoneNumber:  phone,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Username:     p.Username,
		FreeAdsCount: DefaultFreeAds,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Apply refreshes non-empty profile fields.
func (u *User) Apply(p UserProfile) {
	if phone := NormalizePhone(p.PhoneNumber); phone != "" {
		u.PhoneNumber = phone
	}
	if p.FirstName != "" {
		u.FirstName = p.FirstName
	}
	if p.LastName != "" {
		u.LastName = p.LastName
	}
	if p.Username != "" {
		u.Username = p.Username
	}
	u.Touch()
}

// CanPostAd reports whether the user may register another ad right now.
func (u *User) CanPostAd() error {
	switch {
	case u.IsBlocked:
		return domain.ErrUserBlocked
	case u.PhoneNumber == "":
		return domain.ErrPhoneRequired
	case !u.IsPremium && u.FreeAdsCount <= 0:
		return domain.ErrQuotaExhausted
	}
	return nil
}

// ConsumeFreeAd decrements the free quota for non-premium users.
func (u *User) ConsumeFreeAd() {
	if u.IsPremium {
		return
	}
	if u.FreeAdsCount > 0 {
		u.FreeAdsCount--
	}
	u.Touch()
}

func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.UpdatedAt = time.Now() }

// NormalizePhone keeps digits and a leading plus sign.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "+" {
		return ""
	}
	return out
}
