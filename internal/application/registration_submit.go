package application

import (
	"context"
	"errors"
	"fmt"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/infra/metrics"
)

// submit hands a confirmed draft to the ad usecase. The session is cleared on
// every outcome; uploaded photos are kept only when the ad was stored.
func (b *BotFacade) submit(ctx context.Context, s *model.RegistrationSession, u Update) error {
	d := s.Draft
	if !b.validator.ValidateAdContent(d.Title, d.Description, d.Category) {
		metrics.IncRegistration("rejected")
		if err := b.abandon(ctx, u.TelegramID); err != nil {
			return err
		}
		return b.sendMainMenu(ctx, u.ChatID, b.tr.T("rejected"))
	}

	user, err := b.users.FindByTelegramID(ctx, u.TelegramID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		if err := b.abandon(ctx, u.TelegramID); err != nil {
			return err
		}
		return b.msgr.SendKeyboard(ctx, u.ChatID, b.tr.T("phone_required"), contactKeyboard())
	}

	ad, err := b.ads.Create(ctx, user.ID, d.Payload(b.now()), s.Images)
	if err != nil {
		metrics.IncRegistration("failed")
		if aerr := b.abandon(ctx, u.TelegramID); aerr != nil {
			b.log.Warn().Err(aerr).Msg("failed to clear session after submit error")
		}
		b.log.Warn().Err(err).Str("user_id", user.ID).Msg("ad submission failed")
		return b.sendMainMenu(ctx, u.ChatID, b.tr.T(submitErrorKey(err)))
	}

	if err := b.sessions.Clear(ctx, u.TelegramID); err != nil {
		b.log.Warn().Err(err).Str("ad_id", ad.ID).Msg("failed to clear submitted session")
	}
	metrics.IncRegistration("submitted")
	b.log.Info().Str("ad_id", ad.ID).Str("status", string(ad.Status)).Msg("ad registered from bot")

	key := "submit_success_pending"
	if ad.Status == model.AdStatusApproved {
		key = "submit_success_approved"
	}
	return b.sendMainMenu(ctx, u.ChatID, b.tr.T(key))
}

func submitErrorKey(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuotaExhausted):
		return "quota_exhausted"
	case errors.Is(err, domain.ErrUserBlocked):
		return "user_blocked"
	case errors.Is(err, domain.ErrContentRejected):
		return "rejected"
	}
	return "submit_failed"
}
