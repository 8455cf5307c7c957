package model

import (
	"strings"
	"time"

	"photo-market/internal/domain"

	"github.com/google/uuid"
)

const (
	// MaxAdImages caps the number of photos attached to one ad.
	MaxAdImages = 5
	// DefaultAdLifetime is applied when a payload carries no expiration.
	DefaultAdLifetime = 30 * 24 * time.Hour
	FeaturedDays      = 7
	BoostDays         = 3
)

// Where an ad came from.
const (
	AdSourceBot = "bot"
	AdSourceAPI = "api"
)

const (
	CategoryCamera      = "دوربین عکاسی"
	CategoryLens        = "لنز دوربین عکاسی"
	CategoryAccessories = "تجهیزات جانبی"
)

const (
	ConditionNew     = "نو"
	ConditionLikeNew = "در حد نو"
	ConditionUsed    = "کارکرده"
	ConditionBroken  = "معیوب"
)

// Categories is the fixed category vocabulary, in display order.
var Categories = []string{CategoryCamera, CategoryLens, CategoryAccessories}

// Conditions is the fixed condition vocabulary, in display order.
var Conditions = []string{ConditionNew, ConditionLikeNew, ConditionUsed, ConditionBroken}

func IsValidCategory(s string) bool  { return contains(Categories, s) }
func IsValidCondition(s string) bool { return contains(Conditions, s) }

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type AdStatus string

const (
	AdStatusPending  AdStatus = "pending"
	AdStatusApproved AdStatus = "approved"
	AdStatusRejected AdStatus = "rejected"
	AdStatusExpired  AdStatus = "expired"
	AdStatusDeleted  AdStatus = "deleted"
)

var adStatusLabels = map[AdStatus]string{
	AdStatusPending:  "در انتظار تایید",
	AdStatusApproved: "تایید شده",
	AdStatusRejected: "رد شده",
	AdStatusExpired:  "منقضی شده",
	AdStatusDeleted:  "حذف شده",
}

func (s AdStatus) Valid() bool { _, ok := adStatusLabels[s]; return ok }

// Label is the Persian name shown to users.
func (s AdStatus) Label() string {
	if l, ok := adStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

func ParseAdStatus(s string) (AdStatus, error) {
	st := AdStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", domain.ErrInvalidStatus
	}
	return st, nil
}

type AdImage struct {
	ID        string    `json:"id"`
	AdID      string    `json:"ad_id"`
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	Order     int       `json:"order"`
	Size      int       `json:"size,omitempty"`
	MimeType  string    `json:"mime_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Ad struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Category          string     `json:"category"`
	Brand             string     `json:"brand"`
	Condition         string     `json:"condition"`
	Price             int64      `json:"price"`
	Province          string     `json:"province"`
	City              string     `json:"city"`
	Latitude          *float64   `json:"latitude,omitempty"`
	Longitude         *float64   `json:"longitude,omitempty"`
	Status            AdStatus   `json:"status"`
	ExpirationDate    time.Time  `json:"expiration_date"`
	IsFeatured        bool       `json:"is_featured"`
	FeaturedUntil     *time.Time `json:"featured_until,omitempty"`
	IsBoosted         bool       `json:"is_boosted"`
	BoostUntil        *time.Time `json:"boost_until,omitempty"`
	TelegramMessageID *int       `json:"telegram_message_id,omitempty"`
	Images            []AdImage  `json:"images"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// AdPayload is the creation request shared by the bot and the REST API.
type AdPayload struct {
	Title          string
	Description    string
	Category       string
	Condition      string
	Brand          string
	Price          int64
	Province       string
	City           string
	Latitude       *float64
	Longitude      *float64
	ExpirationDate time.Time
	Source         string
}

// Validate checks required fields and vocabularies; content relevance is checked elsewhere.
func (p AdPayload) Validate() error {
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Description) == "" ||
		strings.TrimSpace(p.Brand) == "" || strings.TrimSpace(p.Province) == "" ||
		strings.TrimSpace(p.City) == "" {
		return domain.ErrInvalidArgument
	}
	if !IsValidCategory(p.Category) {
		return domain.ErrInvalidCategory
	}
	if !IsValidCondition(p.Condition) {
		return domain.ErrInvalidCondition
	}
	if p.Price <= 0 {
		return domain.ErrInvalidArgument
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return domain.ErrInvalidArgument
	}
	return nil
}

// NewAd builds an ad from a validated payload.
func NewAd(userID string, p AdPayload, status AdStatus, now time.Time) (*Ad, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	exp := p.ExpirationDate
	if exp.IsZero() {
		exp = now.Add(DefaultAdLifetime)
	}
	return &Ad{
		ID:             uuid.NewString(),
		UserID:         userID,
		Title:          strings.TrimSpace(p.Title),
		Description:    strings.TrimSpace(p.Description),
		Category:       p.Category,
		Brand:          strings.TrimSpace(p.Brand),
		Condition:      p.Condition,
		Price:          p.Price,
		Province:       strings.TrimSpace(p.Province),
		City:           strings.TrimSpace(p.City),
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		Status:         status,
		ExpirationDate: exp,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Feature marks the ad featured for the given number of days, extending an active promotion.
func (a *Ad) Feature(now time.Time, days int) {
	a.FeaturedUntil = extend(a.FeaturedUntil, now, days)
	a.IsFeatured = true
	a.UpdatedAt = now
}

// Boost pushes the ad to the top of listings for the given number of days.
func (a *Ad) Boost(now time.Time, days int) {
	a.BoostUntil = extend(a.BoostUntil, now, days)
	a.IsBoosted = true
	a.UpdatedAt = now
}

func extend(until *time.Time, now time.Time, days int) *time.Time {
	base := now
	if until != nil && until.After(now) {
		base = *until
	}
	t := base.AddDate(0, 0, days)
	return &t
}

func (a *Ad) IsExpired(now time.Time) bool { return !a.ExpirationDate.After(now) }

// AdFilter narrows public listings. Zero values mean "any".
type AdFilter struct {
	Status   AdStatus
	Category string
	Province string
	City     string
	Page     int
	Limit    int
}

// Normalize clamps paging to sane bounds.
func (f *AdFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

func (f AdFilter) Offset() int { return (f.Page - 1) * f.Limit }

// AdPatch holds owner-editable fields; nil means unchanged.
type AdPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Brand       *string `json:"brand"`
	Condition   *string `json:"condition"`
	Price       *int64  `json:"price"`
	Province    *string `json:"province"`
	City        *string `json:"city"`
}

// Apply merges the patch into the ad.
func (p AdPatch) Apply(a *Ad, now time.Time) error {
	if p.Condition != nil && !IsValidCondition(*p.Condition) {
		return domain.ErrInvalidCondition
	}
	if p.Price != nil && *p.Price <= 0 {
		return domain.ErrInvalidArgument
	}
	set := func(dst *string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&a.Title, p.Title)
	set(&a.Description, p.Description)
	set(&a.Brand, p.Brand)
	set(&a.Province, p.Province)
	set(&a.City, p.City)
	if p.Condition != nil {
		a.Condition = *p.Condition
	}
	if p.Price != nil {
		a.Price = *p.Price
	}
	a.UpdatedAt = now
	return nil
}
