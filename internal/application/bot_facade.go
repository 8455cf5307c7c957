package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/adapter"
	"photo-market/internal/domain/ports/repository"
	"photo-market/internal/infra/i18n"
	"photo-market/internal/infra/logging"
	"photo-market/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// BotDeps wires the conversation. Payments may be nil; without Storage the
// images step refuses every photo.
type BotDeps struct {
	Users      UserUseCaseIface
	Ads        AdUseCaseIface
	Payments   PaymentUseCaseIface
	Settings   SettingUseCaseIface
	Validator  ContentValidatorIface
	Sessions   repository.SessionStore
	Locker     repository.SessionLocker
	Messenger  adapter.TelegramBotAdapter
	Storage    adapter.ObjectStorage
	Translator *i18n.Translator
	Logger     *zerolog.Logger

	// ImageTimeout bounds downloading one photo from Telegram and uploading
	// it to storage. Defaults to DefaultImageTimeout.
	ImageTimeout time.Duration
}

const DefaultImageTimeout = 45 * time.Second

// BotFacade owns the ad-registration dialogue and the bot menus.
// The Telegram adapter converts every incoming update into an Update and hands it here.
type BotFacade struct {
	users     UserUseCaseIface
	ads       AdUseCaseIface
	payments  PaymentUseCaseIface
	settings  SettingUseCaseIface
	validator ContentValidatorIface
	sessions  repository.SessionStore
	locker    repository.SessionLocker
	msgr      adapter.TelegramBotAdapter
	storage   adapter.ObjectStorage
	tr        *i18n.Translator
	log       *zerolog.Logger
	now       func() time.Time

	imageTimeout time.Duration

	routes     map[routeKey]stepHandler
	cbExact    map[string]cbHandler
	cbPrefixes []prefixCB
}

func NewBotFacade(d BotDeps) (*BotFacade, error) {
	switch {
	case d.Users == nil, d.Ads == nil, d.Settings == nil, d.Validator == nil:
		return nil, errors.New("bot facade: usecases are required")
	case d.Sessions == nil, d.Locker == nil:
		return nil, errors.New("bot facade: session store and locker are required")
	case d.Messenger == nil, d.Translator == nil, d.Logger == nil:
		return nil, errors.New("bot facade: messenger, translator and logger are required")
	}
	l := d.Logger.With().Str("component", "bot").Logger()
	if d.ImageTimeout <= 0 {
		d.ImageTimeout = DefaultImageTimeout
	}
	b := &BotFacade{
		users:     d.Users,
		ads:       d.Ads,
		payments:  d.Payments,
		settings:  d.Settings,
		validator: d.Validator,
		sessions:  d.Sessions,
		locker:    d.Locker,
		msgr:      d.Messenger,
		storage:   d.Storage,
		tr:        d.Translator,
		log:       &l,
		now:       time.Now,

		imageTimeout: d.ImageTimeout,
	}
	routes, err := b.buildRoutes()
	if err != nil {
		return nil, err
	}
	b.routes = routes
	b.cbExact = b.cbRoutes()
	b.cbPrefixes = b.cbPrefixRoutes()
	return b, nil
}

// Entry points, one per inbound update kind.

func (b *BotFacade) HandleStart(ctx context.Context, u Update)    { u.Kind = KindStart; b.Dispatch(ctx, u) }
func (b *BotFacade) HandleContact(ctx context.Context, u Update)  { u.Kind = KindContact; b.Dispatch(ctx, u) }
func (b *BotFacade) HandleLocation(ctx context.Context, u Update) { u.Kind = KindLocation; b.Dispatch(ctx, u) }
func (b *BotFacade) HandlePhoto(ctx context.Context, u Update)    { u.Kind = KindPhoto; b.Dispatch(ctx, u) }
func (b *BotFacade) HandleText(ctx context.Context, u Update)     { u.Kind = KindText; b.Dispatch(ctx, u) }
func (b *BotFacade) HandleButton(ctx context.Context, u Update)   { u.Kind = KindButton; b.Dispatch(ctx, u) }
func (b *BotFacade) HandleCallback(ctx context.Context, u Update) { u.Kind = KindCallback; b.Dispatch(ctx, u) }

// Dispatch processes one update under the user's lock. It never panics and
// never returns an error: every failure ends in a message to the user.
func (b *BotFacade) Dispatch(ctx context.Context, u Update) {
	if u.ChatID == 0 {
		u.ChatID = u.TelegramID
	}
	if u.Kind == KindText && IsButtonLabel(u.Text) {
		u.Kind = KindButton
	}
	ctx = logging.WithTgID(ctx, u.TelegramID)
	log := logging.With(ctx, b.log)

	defer func() {
		if r := recover(); r != nil {
			metrics.IncHandlerPanic()
			log.Error().Str("panic", fmt.Sprint(r)).Str("kind", string(u.Kind)).Msg("update handler panicked")
			_ = b.msgr.SendMessage(ctx, u.ChatID, b.tr.T("generic_error"))
		}
	}()
	metrics.IncTelegramUpdate(string(u.Kind))

	unlock, err := b.locker.Lock(ctx, u.TelegramID)
	if err != nil {
		log.Warn().Err(err).Msg("could not lock session")
		_ = b.msgr.SendMessage(ctx, u.ChatID, b.tr.T("busy"))
		return
	}
	defer unlock()

	if err := b.dispatch(ctx, u); err != nil {
		log.Error().Err(err).Str("kind", string(u.Kind)).Msg("update handling failed")
		_ = b.msgr.SendMessage(ctx, u.ChatID, b.tr.T("generic_error"))
	}
}

func (b *BotFacade) dispatch(ctx context.Context, u Update) error {
	switch u.Kind {
	case KindStart:
		return b.onStart(ctx, u)
	case KindContact:
		return b.onContact(ctx, u)
	case KindCallback:
		return b.onCallback(ctx, u)
	case KindButton:
		switch u.Text {
		case LabelRegisterAd:
			return b.startRegistration(ctx, u)
		case LabelMyAds:
			return b.onMyAds(ctx, u)
		case LabelHelp:
			return b.onHelp(ctx, u)
		case LabelSupport:
			return b.reply(ctx, u.ChatID, b.tr.T("support"))
		case LabelBackToMenu:
			if err := b.abandon(ctx, u.TelegramID); err != nil {
				return err
			}
			return b.sendMainMenu(ctx, u.ChatID, b.tr.T("main_menu"))
		case LabelCancel:
			s, err := b.sessions.Get(ctx, u.TelegramID)
			if err != nil {
				return err
			}
			if s.Active() {
				metrics.IncRegistration("cancelled")
			}
			if err := b.abandon(ctx, u.TelegramID); err != nil {
				return err
			}
			return b.sendMainMenu(ctx, u.ChatID, b.tr.T("cancelled"))
		}
	}

	s, err := b.sessions.Get(ctx, u.TelegramID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !s.Active() {
		if u.Kind == KindText {
			return b.sendMainMenu(ctx, u.ChatID, b.tr.T("unknown_command"))
		}
		return nil
	}
	h, ok := b.routes[routeKey{step: s.Step, kind: u.Kind}]
	if !ok {
		// Not meaningful at this step.
		return nil
	}
	return h(logging.WithStep(ctx, string(s.Step)), s, u)
}

// ---- shared helpers ----

func (b *BotFacade) reply(ctx context.Context, chatID int64, text string) error {
	return b.msgr.SendMessage(ctx, chatID, text)
}

func (b *BotFacade) sendMainMenu(ctx context.Context, chatID int64, text string) error {
	return b.msgr.SendKeyboard(ctx, chatID, text, mainMenuKeyboard())
}

func (b *BotFacade) save(ctx context.Context, s *model.RegistrationSession) error {
	s.UpdatedAt = b.now()
	if err := b.sessions.Set(ctx, s.TelegramID, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// abandon clears the user's session and removes photos already uploaded for it.
func (b *BotFacade) abandon(ctx context.Context, tgID int64) error {
	s, err := b.sessions.Get(ctx, tgID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := b.sessions.Clear(ctx, tgID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	b.discardUploads(ctx, s)
	return nil
}

func (b *BotFacade) discardUploads(ctx context.Context, s *model.RegistrationSession) {
	if b.storage == nil || s == nil {
		return
	}
	var urls []string
	for _, img := range s.Images {
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	if len(urls) == 0 {
		return
	}
	if err := b.storage.DeleteMany(ctx, urls); err != nil {
		b.log.Warn().Err(err).Int64("tg_id", s.TelegramID).Msg("failed to remove abandoned uploads")
	}
}
