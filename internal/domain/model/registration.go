package model

import (
	"time"

	"photo-market/internal/domain"
)

// RegistrationStep is the position of a user inside the ad registration dialogue.
type RegistrationStep string

const (
	StepNone                RegistrationStep = ""
	StepWaitingTitle        RegistrationStep = "waiting_title"
	StepWaitingDescription  RegistrationStep = "waiting_description"
	StepWaitingImages       RegistrationStep = "waiting_images"
	StepWaitingCategory     RegistrationStep = "waiting_category"
	StepWaitingCondition    RegistrationStep = "waiting_condition"
	StepWaitingBrand        RegistrationStep = "waiting_brand"
	StepWaitingProvince     RegistrationStep = "waiting_province"
	StepWaitingCity         RegistrationStep = "waiting_city"
	StepWaitingLocation     RegistrationStep = "waiting_location"
	StepWaitingPrice        RegistrationStep = "waiting_price"
	StepWaitingConfirmation RegistrationStep = "waiting_confirmation"
	StepSubmitted           RegistrationStep = "submitted"
	StepCancelled           RegistrationStep = "cancelled"
)

// registrationOrder lists the collecting steps in their mandated order.
var registrationOrder = []RegistrationStep{
	StepWaitingTitle,
	StepWaitingDescription,
	StepWaitingImages,
	StepWaitingCategory,
	StepWaitingCondition,
	StepWaitingBrand,
	StepWaitingProvince,
	StepWaitingCity,
	StepWaitingLocation,
	StepWaitingPrice,
	StepWaitingConfirmation,
}

// RegistrationSteps returns the collecting steps in order.
func RegistrationSteps() []RegistrationStep {
	out := make([]RegistrationStep, len(registrationOrder))
	copy(out, registrationOrder)
	return out
}

func (s RegistrationStep) index() int {
	for i, v := range registrationOrder {
		if v == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known step (including none and the terminals).
func (s RegistrationStep) Valid() bool {
	return s == StepNone || s == StepSubmitted || s == StepCancelled || s.index() >= 0
}

// Terminal reports whether the dialogue is over.
func (s RegistrationStep) Terminal() bool { return s == StepSubmitted || s == StepCancelled }

// Next returns the following collecting step; confirmation leads to submitted.
func (s RegistrationStep) Next() RegistrationStep {
	i := s.index()
	switch {
	case s == StepNone:
		return StepWaitingTitle
	case i < 0:
		return s
	case i == len(registrationOrder)-1:
		return StepSubmitted
	}
	return registrationOrder[i+1]
}

// ImageBlob is a photo held by an in-flight registration. Content is dropped once URL is set.
type ImageBlob struct {
	Content  []byte `json:"-"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
	URL      string `json:"url,omitempty"`
}

// AdDraft is the partially collected ad. Fields are filled strictly in step order.
type AdDraft struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Condition   string   `json:"condition,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Province    string   `json:"province,omitempty"`
	City        string   `json:"city,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Price       int64    `json:"price,omitempty"`
}

// Fields lists the names of populated draft fields in collection order.
func (d AdDraft) Fields() []string {
	var out []string
	add := func(name string, ok bool) {
		if ok {
			out = append(out, name)
		}
	}
	add("title", d.Title != "")
	add("description", d.Description != "")
	add("category", d.Category != "")
	add("condition", d.Condition != "")
	add("brand", d.Brand != "")
	add("province", d.Province != "")
	add("city", d.City != "")
	add("latitude", d.Latitude != nil)
	add("longitude", d.Longitude != nil)
	add("price", d.Price > 0)
	return out
}

// Payload converts a finished draft into an ad creation request.
func (d AdDraft) Payload(now time.Time) AdPayload {
	return AdPayload{
		Title:          d.Title,
		Description:    d.Description,
		Category:       d.Category,
		Condition:      d.Condition,
		Brand:          d.Brand,
		Price:          d.Price,
		Province:       d.Province,
		City:           d.City,
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
		ExpirationDate: now.Add(DefaultAdLifetime),
		Source:         AdSourceBot,
	}
}

// RegistrationSession is one user's in-flight ad registration.
type RegistrationSession struct {
	TelegramID int64            `json:"telegram_id"`
	Step       RegistrationStep `json:"step"`
	Draft      AdDraft          `json:"draft"`
	Images     []ImageBlob      `json:"images"`
	StartedAt  time.Time        `json:"started_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// NewRegistrationSession starts a fresh dialogue at the title step.
func NewRegistrationSession(tgID int64, now time.Time) *RegistrationSession {
	return &RegistrationSession{
		TelegramID: tgID,
		Step:       StepWaitingTitle,
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

// EmptySession is what a store returns for a user with no dialogue.
func EmptySession(tgID int64) *RegistrationSession {
	return &RegistrationSession{TelegramID: tgID, Step: StepNone}
}

// Active reports whether a registration is in progress.
func (s *RegistrationSession) Active() bool {
	return s != nil && s.Step != StepNone && !s.Step.Terminal()
}

// AddImage appends a photo, refusing beyond MaxAdImages.
func (s *RegistrationSession) AddImage(b ImageBlob) error {
	if len(s.Images) >= MaxAdImages {
		return domain.ErrTooManyImages
	}
	s.Images = append(s.Images, b)
	return nil
}

// Advance moves to the following step.
func (s *RegistrationSession) Advance(now time.Time) {
	s.Step = s.Step.Next()
	s.UpdatedAt = now
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *RegistrationSession) Clone() *RegistrationSession {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Draft.Latitude != nil {
		v := *s.Draft.Latitude
		cp.Draft.Latitude = &v
	}
	if s.Draft.Longitude != nil {
		v := *s.Draft.Longitude
		cp.Draft.Longitude = &v
	}
	if s.Images != nil {
		cp.Images = make([]ImageBlob, len(s.Images))
		copy(cp.Images, s.Images)
	}
	return &cp
}
