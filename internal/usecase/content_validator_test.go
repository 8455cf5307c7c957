//go:build !integration

package usecase_test

import (
	"testing"

	"photo-market/internal/domain/model"
	"photo-market/internal/usecase"
)

func TestContentValidator(t *testing.T) {
	v := usecase.NewContentValidator()

	tests := []struct {
		name                      string
		title, description, categ string
		want                      bool
	}{
		{"persian keyword in title", "دوربین کانن 5D", "در حد نو", model.CategoryCamera, true},
		{"english keyword is case-insensitive", "Nikon Z6", "great body", model.CategoryCamera, true},
		{"keyword only in description", "فروش فوری", "LENS 50mm f1.8", model.CategoryLens, true},
		{"no keyword", "گوشی موبایل", "سالم", model.CategoryAccessories, false},
		{"unknown category", "دوربین", "لنز", "موبایل", false},
		{"empty category", "camera", "lens", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.ValidateAdContent(tt.title, tt.description, tt.categ); got != tt.want {
				t.Errorf("want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestContentValidator_CustomKeywords(t *testing.T) {
	v := usecase.NewContentValidator("Gimbal")
	if !v.ValidateAdContent("DJI gimbal", "", model.CategoryAccessories) {
		t.Error("expected custom keyword to match")
	}
	if v.ValidateAdContent("camera", "", model.CategoryCamera) {
		t.Error("default keywords should not apply when custom ones are given")
	}
}
