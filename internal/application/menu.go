package application

import (
	"context"
	"fmt"
	"strings"

	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/adapter"
	"photo-market/internal/infra/logging"
)

type cbHandler func(ctx context.Context, u Update) error

// prefixCB routes callback data that carries an argument after Prefix.
type prefixCB struct {
	Prefix string
	Fn     func(ctx context.Context, u Update, arg string) error
}

func (b *BotFacade) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		cbMenu: func(ctx context.Context, u Update) error {
			return b.sendMainMenu(ctx, u.ChatID, b.tr.T("main_menu"))
		},
		cbPayExtraAd: func(ctx context.Context, u Update) error {
			return b.initiatePayment(ctx, u, model.PaymentTypeExtraAd, "")
		},
		cbPayPremium: func(ctx context.Context, u Update) error {
			return b.initiatePayment(ctx, u, model.PaymentTypePremium, "")
		},
	}
}

func (b *BotFacade) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{Prefix: cbPromoteFeatured, Fn: func(ctx context.Context, u Update, adID string) error {
			return b.initiatePayment(ctx, u, model.PaymentTypeAdFeatured, adID)
		}},
		{Prefix: cbPromoteBoost, Fn: func(ctx context.Context, u Update, adID string) error {
			return b.initiatePayment(ctx, u, model.PaymentTypeAdBoost, adID)
		}},
	}
}

func (b *BotFacade) onCallback(ctx context.Context, u Update) error {
	if h, ok := b.cbExact[u.Text]; ok {
		return h(ctx, u)
	}
	for _, p := range b.cbPrefixes {
		if arg, ok := strings.CutPrefix(u.Text, p.Prefix); ok && arg != "" {
			return p.Fn(ctx, u, arg)
		}
	}
	b.log.Debug().Str("data", u.Text).Msg("unhandled callback")
	return nil
}

// onStart resets any dialogue and either asks for the phone number or shows the menu.
func (b *BotFacade) onStart(ctx context.Context, u Update) error {
	if err := b.abandon(ctx, u.TelegramID); err != nil {
		return err
	}
	user, err := b.users.FindByTelegramID(ctx, u.TelegramID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil || user.PhoneNumber == "" {
		text := b.tr.T("welcome_greeting", u.FirstName) + "\n\n" + b.settings.WelcomeMessage(ctx)
		return b.msgr.SendKeyboard(ctx, u.ChatID, text, contactKeyboard())
	}
	return b.sendMainMenu(ctx, u.ChatID, b.tr.T("main_menu"))
}

// onContact registers the user. Only the sender's own contact card is accepted.
func (b *BotFacade) onContact(ctx context.Context, u Update) error {
	if u.Contact == nil || u.Contact.UserID != u.TelegramID {
		return b.msgr.SendKeyboard(ctx, u.ChatID, b.tr.T("contact_not_own"), contactKeyboard())
	}
	phone := logging.MaskPhone(u.Contact.PhoneNumber)
	_, err := b.users.CreateOrUpdate(ctx, u.TelegramID, model.UserProfile{
		PhoneNumber: u.Contact.PhoneNumber,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Username:    u.Username,
	})
	if err != nil {
		b.log.Error().Err(err).Int64("tg_id", u.TelegramID).Str("phone", phone).Msg("failed to save contact")
		return b.reply(ctx, u.ChatID, b.tr.T("contact_failed"))
	}
	b.log.Info().Int64("tg_id", u.TelegramID).Str("phone", phone).Msg("contact shared")
	return b.sendMainMenu(ctx, u.ChatID, b.tr.T("contact_saved"))
}

func (b *BotFacade) onHelp(ctx context.Context, u Update) error {
	return b.sendMainMenu(ctx, u.ChatID, b.tr.T("help", b.settings.AdGuidelines(ctx)))
}

func (b *BotFacade) onMyAds(ctx context.Context, u Update) error {
	user, err := b.users.FindByTelegramID(ctx, u.TelegramID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return b.reply(ctx, u.ChatID, b.tr.T("user_not_found"))
	}
	ads, err := b.ads.ListByUser(ctx, user.ID)
	if err != nil {
		b.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to list ads")
		return b.reply(ctx, u.ChatID, b.tr.T("my_ads_failed"))
	}
	if len(ads) == 0 {
		return b.sendMainMenu(ctx, u.ChatID, b.tr.T("my_ads_empty"))
	}

	lines := []string{b.tr.T("my_ads_header"), ""}
	var rows [][]adapter.InlineButton
	promote := b.payments != nil && b.payments.Enabled()
	for i, ad := range ads {
		n := i + 1
		lines = append(lines, b.tr.T("my_ads_item", n, ad.Title, FormatToman(ad.Price), ad.Status.Label()))
		if promote && (ad.Status == model.AdStatusPending || ad.Status == model.AdStatusApproved) {
			rows = append(rows, []adapter.InlineButton{
				{Text: b.tr.T("btn_feature", n), Data: cbPromoteFeatured + ad.ID},
				{Text: b.tr.T("btn_boost", n), Data: cbPromoteBoost + ad.ID},
			})
		}
	}
	text := strings.Join(lines, "\n")
	if len(rows) > 0 {
		return b.msgr.SendButtons(ctx, u.ChatID, text, rows)
	}
	return b.sendMainMenu(ctx, u.ChatID, text)
}

func (b *BotFacade) initiatePayment(ctx context.Context, u Update, t model.PaymentType, adID string) error {
	if b.payments == nil || !b.payments.Enabled() {
		return b.reply(ctx, u.ChatID, b.tr.T("payment_failed"))
	}
	user, err := b.users.FindByTelegramID(ctx, u.TelegramID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return b.msgr.SendKeyboard(ctx, u.ChatID, b.tr.T("phone_required"), contactKeyboard())
	}
	p, payURL, err := b.payments.Initiate(ctx, user.ID, t, adID)
	if err != nil {
		b.log.Warn().Err(err).Str("type", string(t)).Str("ad_id", adID).Msg("payment initiation failed")
		return b.reply(ctx, u.ChatID, b.tr.T("payment_failed"))
	}
	text := b.tr.T("payment_link", t.Label(), FormatToman(p.Amount))
	rows := [][]adapter.InlineButton{{{Text: b.tr.T("payment_button"), URL: payURL}}}
	return b.msgr.SendButtons(ctx, u.ChatID, text, rows)
}
