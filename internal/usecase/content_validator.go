package usecase

import (
	"strings"

	"photo-market/internal/domain/model"
)

// ContentValidator decides whether an ad is about photography equipment.
type ContentValidator interface {
	ValidateAdContent(title, description, category string) bool
}

var _ ContentValidator = (*keywordValidator)(nil)

// DefaultKeywords are matched case-insensitively against title and description.
var DefaultKeywords = []string{
	"دوربین", "لنز", "فلاش", "ترایپاد", "عکاسی", "فیلمبرداری",
	"کانن", "نیکون", "سونی", "فوجی", "پاناسونیک", "المپوس",
	"camera", "lens", "flash", "tripod", "photography",
	"canon", "nikon", "sony", "fuji", "panasonic", "olympus",
}

type keywordValidator struct {
	keywords []string
}

// NewContentValidator builds a keyword validator; no keywords means DefaultKeywords.
func NewContentValidator(keywords ...string) *keywordValidator {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kw = append(kw, k)
		}
	}
	return &keywordValidator{keywords: kw}
}

func (v *keywordValidator) ValidateAdContent(title, description, category string) bool {
	if !model.IsValidCategory(category) {
		return false
	}
	text := strings.ToLower(title + " " + description)
	for _, k := range v.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
