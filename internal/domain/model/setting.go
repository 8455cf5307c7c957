package model

import "time"

// Well-known setting keys.
const (
	SettingWelcomeMessage  = "welcome_message"
	SettingAdGuidelines    = "ad_guidelines"
	SettingFeaturedAdPrice = "featured_ad_price"
	SettingBoostAdPrice    = "boost_ad_price"
	SettingExtraAdPrice    = "extra_ad_price"
	SettingPremiumPrice    = "premium_price"
	// SettingQuotaResetMonth records the last month (YYYY-MM) free-ad quotas were reset.
	SettingQuotaResetMonth = "free_ads_reset_month"
)

// Defaults used when a key is missing or malformed.
const (
	DefaultWelcomeMessage  = "به ربات آگهی تجهیزات عکاسی خوش آمدید! 📸\n\nبرای شروع، لطفاً شماره تلفن خود را به اشتراک بگذارید تا بتوانید آگهی ثبت کنید."
	DefaultAdGuidelines    = "لطفاً توجه داشته باشید که فقط آگهی‌های مربوط به تجهیزات عکاسی پذیرفته می‌شود."
	DefaultFeaturedAdPrice = 50000
	DefaultBoostAdPrice    = 20000
	DefaultExtraAdPrice    = 30000
	DefaultPremiumPrice    = 60000
)

type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PriceSettingFor maps a payment type to its price key and default.
func PriceSettingFor(t PaymentType) (key string, def int64) {
	switch t {
	case PaymentTypeAdFeatured:
		return SettingFeaturedAdPrice, DefaultFeaturedAdPrice
	case PaymentTypeAdBoost:
		return SettingBoostAdPrice, DefaultBoostAdPrice
	case PaymentTypeExtraAd:
		return SettingExtraAdPrice, DefaultExtraAdPrice
	case PaymentTypePremium:
		return SettingPremiumPrice, DefaultPremiumPrice
	}
	return "", 0
}
