package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/adapter"
	"photo-market/internal/infra/metrics"
)

// startRegistration checks the preconditions and opens a fresh dialogue,
// replacing any stale one.
func (b *BotFacade) startRegistration(ctx context.Context, u Update) error {
	user, err := b.users.FindByTelegramID(ctx, u.TelegramID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		metrics.IncRegistration("refused")
		return b.msgr.SendKeyboard(ctx, u.ChatID, b.tr.T("phone_required"), contactKeyboard())
	}
	switch err := user.CanPostAd(); {
	case errors.Is(err, domain.ErrPhoneRequired):
		metrics.IncRegistration("refused")
		return b.msgr.SendKeyboard(ctx, u.ChatID, b.tr.T("phone_required"), contactKeyboard())
	case errors.Is(err, domain.ErrUserBlocked):
		metrics.IncRegistration("refused")
		return b.reply(ctx, u.ChatID, b.tr.T("user_blocked"))
	case errors.Is(err, domain.ErrQuotaExhausted):
		metrics.IncRegistration("refused")
		return b.sendQuotaExhausted(ctx, u.ChatID)
	case err != nil:
		return err
	}

	old, err := b.sessions.Get(ctx, u.TelegramID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	s := model.NewRegistrationSession(u.TelegramID, b.now())
	if err := b.save(ctx, s); err != nil {
		return err
	}
	b.discardUploads(ctx, old)
	metrics.IncRegistration("started")
	return b.prompt(ctx, u.ChatID, s)
}

func (b *BotFacade) sendQuotaExhausted(ctx context.Context, chatID int64) error {
	text := b.tr.T("quota_exhausted")
	if b.payments == nil || !b.payments.Enabled() {
		return b.reply(ctx, chatID, text)
	}
	price := b.settings.Price(ctx, model.PaymentTypeExtraAd)
	rows := [][]adapter.InlineButton{
		{{Text: b.tr.T("quota_buy_button", FormatToman(price)), Data: cbPayExtraAd}},
		{{Text: model.PaymentTypePremium.Label(), Data: cbPayPremium}},
	}
	return b.msgr.SendButtons(ctx, chatID, text, rows)
}

// prompt asks for whatever the session's current step collects.
func (b *BotFacade) prompt(ctx context.Context, chatID int64, s *model.RegistrationSession) error {
	switch s.Step {
	case model.StepWaitingTitle:
		return b.msgr.SendKeyboard(ctx, chatID, b.tr.T("prompt_title"), textStepKeyboard())
	case model.StepWaitingDescription:
		return b.msgr.SendKeyboard(ctx, chatID, b.tr.T("prompt_description"), textStepKeyboard())
	case model.StepWaitingImages:
		return b.msgr.SendKeyboard(ctx, chatID, b.tr.T("prompt_images"), imagesKeyboard())
	case model.StepWaitingCategory:
		return b.msgr.SendKeyboard(ctx, chatID, b.tr.T("prompt_category"), choiceKeyboard(model.Categories))
	case model.StepWaitingCondition:
		return b.msgr.SendKeyboard(ctx, chatID, b.tr.T("prompt_condition"), choiceKeyboard(model.Conditions))
	case model.StepWaitingBrand:
		return b.msgr.SendKeyboard(ctx, chatID, b.tr.T("prompt_brand"), textStepKeyboard())
	case model.StepWaitingProvince:
		return b.msgr.SendKeyboard(ctx, chatID, b.tr.T("prompt_province"), textStepKeyboard())
	case model.StepWaitingCity:
		return b.msgr.SendKeyboard(ctx, chatID, b.tr.T("prompt_city"), textStepKeyboard())
	case model.StepWaitingLocation:
		return b.msgr.SendKeyboard(ctx, chatID, b.tr.T("prompt_location"), locationKeyboard())
	case model.StepWaitingPrice:
		return b.msgr.SendKeyboard(ctx, chatID, b.tr.T("prompt_price"), textStepKeyboard())
	case model.StepWaitingConfirmation:
		return b.msgr.SendKeyboard(ctx, chatID, b.preview(s), confirmKeyboard())
	}
	return nil
}

// advance moves to the next step, saves and prompts for it.
func (b *BotFacade) advance(ctx context.Context, chatID int64, s *model.RegistrationSession) error {
	s.Advance(b.now())
	if err := b.save(ctx, s); err != nil {
		return err
	}
	return b.prompt(ctx, chatID, s)
}

// textStep stores trimmed free text; empty input re-prompts.
func (b *BotFacade) textStep(set func(d *model.AdDraft, v string)) stepHandler {
	return func(ctx context.Context, s *model.RegistrationSession, u Update) error {
		v := strings.TrimSpace(u.Text)
		if v == "" {
			return b.prompt(ctx, u.ChatID, s)
		}
		set(&s.Draft, v)
		return b.advance(ctx, u.ChatID, s)
	}
}

// choiceStep accepts only labels from a fixed vocabulary; anything else is ignored.
func (b *BotFacade) choiceStep(valid func(string) bool, set func(d *model.AdDraft, v string)) stepHandler {
	return func(ctx context.Context, s *model.RegistrationSession, u Update) error {
		if !valid(u.Text) {
			return nil
		}
		set(&s.Draft, u.Text)
		return b.advance(ctx, u.ChatID, s)
	}
}

func (b *BotFacade) onImage(ctx context.Context, s *model.RegistrationSession, u Update) error {
	if len(s.Images) >= model.MaxAdImages {
		metrics.IncRegistrationImage("limit")
		return b.reply(ctx, u.ChatID, b.tr.T("images_limit"))
	}
	if u.Photo == nil || u.Photo.FileID == "" {
		return nil
	}

	// Sessions hold image URLs only, so a photo that cannot be stored is refused.
	if b.storage == nil {
		metrics.IncRegistrationImage("failed")
		b.log.Error().Int64("tg_id", u.TelegramID).Msg("photo refused: object storage is not configured")
		return b.reply(ctx, u.ChatID, b.tr.T("image_failed"))
	}

	ioCtx, cancel := context.WithTimeout(ctx, b.imageTimeout)
	defer cancel()
	blob, err := b.msgr.DownloadFile(ioCtx, u.Photo.FileID)
	if err != nil {
		metrics.IncRegistrationImage("failed")
		b.log.Warn().Err(err).Int64("tg_id", u.TelegramID).Msg("photo download failed")
		return b.reply(ctx, u.ChatID, b.tr.T("image_failed"))
	}
	url, err := b.storage.Upload(ioCtx, blob)
	if err != nil {
		metrics.IncRegistrationImage("failed")
		b.log.Warn().Err(err).Int64("tg_id", u.TelegramID).Msg("photo upload failed")
		return b.reply(ctx, u.ChatID, b.tr.T("image_failed"))
	}
	blob.URL = url
	blob.Content = nil

	if err := s.AddImage(*blob); err != nil {
		metrics.IncRegistrationImage("limit")
		return b.reply(ctx, u.ChatID, b.tr.T("images_limit"))
	}
	if err := b.save(ctx, s); err != nil {
		return err
	}
	metrics.IncRegistrationImage("accepted")
	return b.reply(ctx, u.ChatID, b.tr.T("image_received", len(s.Images)))
}

func (b *BotFacade) onImagesText(ctx context.Context, s *model.RegistrationSession, u Update) error {
	if strings.TrimSpace(u.Text) != DoneText {
		return b.prompt(ctx, u.ChatID, s)
	}
	if len(s.Images) == 0 {
		return b.reply(ctx, u.ChatID, b.tr.T("images_required"))
	}
	return b.advance(ctx, u.ChatID, s)
}

func (b *BotFacade) onLocation(ctx context.Context, s *model.RegistrationSession, u Update) error {
	if u.Location == nil {
		return nil
	}
	lat, lon := u.Location.Latitude, u.Location.Longitude
	s.Draft.Latitude = &lat
	s.Draft.Longitude = &lon
	return b.advance(ctx, u.ChatID, s)
}

func (b *BotFacade) onSkipLocation(ctx context.Context, s *model.RegistrationSession, u Update) error {
	if u.Text != LabelSkipLocation {
		return nil
	}
	return b.advance(ctx, u.ChatID, s)
}

func (b *BotFacade) onPrice(ctx context.Context, s *model.RegistrationSession, u Update) error {
	price, ok := ParsePrice(u.Text)
	if !ok {
		return b.msgr.SendKeyboard(ctx, u.ChatID, b.tr.T("price_invalid"), textStepKeyboard())
	}
	s.Draft.Price = price
	return b.advance(ctx, u.ChatID, s)
}

func (b *BotFacade) onConfirm(ctx context.Context, s *model.RegistrationSession, u Update) error {
	if u.Text != LabelConfirm {
		return nil
	}
	return b.submit(ctx, s, u)
}
