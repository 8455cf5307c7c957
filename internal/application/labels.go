package application

import (
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/adapter"
)

// Reply-keyboard labels. Users press these; the text comes back verbatim.
const (
	LabelRegisterAd    = "📝 ثبت آگهی"
	LabelMyAds         = "📋 آگهی‌های من"
	LabelHelp          = "📖 راهنما"
	LabelSupport       = "📞 پشتیبانی"
	LabelBackToMenu    = "🔙 بازگشت به منوی اصلی"
	LabelConfirm       = "✅ تایید و ثبت آگهی"
	LabelCancel        = "❌ لغو"
	LabelSkipLocation  = "رد کردن موقعیت مکانی"
	LabelShareLocation = "📍 اشتراک‌گذاری موقعیت مکانی"
	LabelShareContact  = "📱 اشتراک‌گذاری شماره تلفن"

	// DoneText closes the image step. It is typed, not a button.
	DoneText = "تمام"
)

// Callback data.
const (
	cbMenu            = "menu"
	cbPayExtraAd      = "pay:extra_ad"
	cbPayPremium      = "pay:premium"
	cbPromoteFeatured = "promote:featured:"
	cbPromoteBoost    = "promote:boost:"
)

var buttonLabels = func() map[string]struct{} {
	m := map[string]struct{}{}
	for _, l := range []string{
		LabelRegisterAd, LabelMyAds, LabelHelp, LabelSupport,
		LabelBackToMenu, LabelConfirm, LabelCancel, LabelSkipLocation,
	} {
		m[l] = struct{}{}
	}
	for _, l := range model.Categories {
		m[l] = struct{}{}
	}
	for _, l := range model.Conditions {
		m[l] = struct{}{}
	}
	return m
}()

// IsButtonLabel reports whether text is one of the fixed button vocabularies.
func IsButtonLabel(text string) bool {
	_, ok := buttonLabels[text]
	return ok
}

func mainMenuKeyboard() [][]adapter.ReplyButton {
	return [][]adapter.ReplyButton{
		{{Text: LabelRegisterAd}},
		{{Text: LabelMyAds}},
		{{Text: LabelHelp}, {Text: LabelSupport}},
	}
}

func contactKeyboard() [][]adapter.ReplyButton {
	return [][]adapter.ReplyButton{{{Text: LabelShareContact, RequestContact: true}}}
}

func navRow() []adapter.ReplyButton {
	return []adapter.ReplyButton{{Text: LabelCancel}, {Text: LabelBackToMenu}}
}

func textStepKeyboard() [][]adapter.ReplyButton {
	return [][]adapter.ReplyButton{navRow()}
}

func imagesKeyboard() [][]adapter.ReplyButton {
	return [][]adapter.ReplyButton{{{Text: DoneText}}, navRow()}
}

func choiceKeyboard(options []string) [][]adapter.ReplyButton {
	rows := make([][]adapter.ReplyButton, 0, len(options)+1)
	for _, o := range options {
		rows = append(rows, []adapter.ReplyButton{{Text: o}})
	}
	return append(rows, navRow())
}

func locationKeyboard() [][]adapter.ReplyButton {
	return [][]adapter.ReplyButton{
		{{Text: LabelShareLocation, RequestLocation: true}},
		{{Text: LabelSkipLocation}},
		navRow(),
	}
}

func confirmKeyboard() [][]adapter.ReplyButton {
	return [][]adapter.ReplyButton{{{Text: LabelConfirm}}, {{Text: LabelCancel}}}
}
