package application

import (
	"strconv"
	"strings"

	"photo-market/internal/domain/model"
)

// ParsePrice reads a Toman amount typed by a user. Persian and Arabic-Indic
// digits are accepted, separators and units are ignored. A minus sign before
// the first digit, zero, or an amount that overflows int64 is rejected.
func ParsePrice(text string) (int64, bool) {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '۰' && r <= '۹':
			b.WriteRune('0' + (r - '۰'))
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		case (r == '-' || r == '−') && b.Len() == 0:
			return 0, false
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// FormatToman renders n with comma thousands separators.
func FormatToman(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func (b *BotFacade) preview(s *model.RegistrationSession) string {
	d := s.Draft
	coords := ""
	if d.Latitude != nil && d.Longitude != nil {
		coords = b.tr.T("preview_coordinates", *d.Latitude, *d.Longitude)
	}
	return b.tr.T("preview",
		d.Title, d.Description, d.Category, d.Condition, d.Brand,
		d.Province, d.City, coords, FormatToman(d.Price), len(s.Images))
}
