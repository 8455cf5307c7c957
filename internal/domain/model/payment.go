package model

import (
	"time"

	"photo-market/internal/domain"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // redirected to gateway; awaiting verification
	PaymentStatusCompleted PaymentStatus = "completed" // verified OK at provider, effect applied
	PaymentStatusFailed    PaymentStatus = "failed"    // verification failed or user aborted at gateway
	PaymentStatusCancelled PaymentStatus = "cancelled" // admin/user cancel
)

type PaymentType string

const (
	PaymentTypeAdFeatured PaymentType = "ad_featured"
	PaymentTypeAdBoost    PaymentType = "ad_boost"
	PaymentTypeExtraAd    PaymentType = "extra_ad"
	PaymentTypePremium    PaymentType = "premium_subscription"
)

var paymentTypeLabels = map[PaymentType]string{
	PaymentTypeAdFeatured: "ویژه کردن آگهی",
	PaymentTypeAdBoost:    "نردبان کردن آگهی",
	PaymentTypeExtraAd:    "خرید آگهی رایگان اضافی",
	PaymentTypePremium:    "اشتراک ویژه",
}

func (t PaymentType) Valid() bool { _, ok := paymentTypeLabels[t]; return ok }

func (t PaymentType) Label() string {
	if l, ok := paymentTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// NeedsAd reports whether the payment targets a specific ad.
func (t PaymentType) NeedsAd() bool {
	return t == PaymentTypeAdFeatured || t == PaymentTypeAdBoost
}

// Payment records a promotional purchase. Amount is in Toman; the gateway is charged in Rials.
type Payment struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	AdID        *string       `json:"ad_id,omitempty"`
	Type        PaymentType   `json:"type"`
	Amount      int64         `json:"amount"`
	Status      PaymentStatus `json:"status"`
	Provider    string        `json:"provider"`
	Authority   string        `json:"authority,omitempty"`
	RefID       string        `json:"ref_id,omitempty"`
	Description string        `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	PaidAt      *time.Time    `json:"paid_at,omitempty"`
}

func NewPayment(userID string, t PaymentType, adID string, amount int64, provider string) (*Payment, error) {
	if userID == "" || amount <= 0 || !t.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if t.NeedsAd() && adID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	p := &Payment{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        t,
		Amount:      amount,
		Status:      PaymentStatusPending,
		Provider:    provider,
		Description: t.Label(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if adID != "" {
		p.AdID = &adID
	}
	return p, nil
}

// AmountIRR converts the Toman amount to Rials for the gateway.
func (p *Payment) AmountIRR() int64 { return p.Amount * 10 }

func (p *Payment) MarkCompleted(refID string, at time.Time) {
	p.Status = PaymentStatusCompleted
	p.RefID = refID
	p.PaidAt = &at
	p.UpdatedAt = at
}

func (p *Payment) MarkFailed(at time.Time) {
	p.Status = PaymentStatusFailed
	p.UpdatedAt = at
}

// PaymentStats summarizes revenue for admins.
type PaymentStats struct {
	Total     int   `json:"total"`
	Completed int   `json:"completed"`
	Pending   int   `json:"pending"`
	Failed    int   `json:"failed"`
	Revenue   int64 `json:"revenue"`
}
