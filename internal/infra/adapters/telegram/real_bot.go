package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"photo-market/internal/application"
	"photo-market/internal/config"
	"photo-market/internal/domain/ports/adapter"
	"photo-market/internal/infra/i18n"
	"photo-market/internal/infra/logging"
	"photo-market/internal/infra/metrics"
	red "photo-market/internal/infra/redis"
)

var (
	_ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)
	_ adapter.ChannelPublisher   = (*RealTelegramBotAdapter)(nil)
)

// botAPI is the part of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// UpdateHandler consumes converted updates; *application.BotFacade implements it.
type UpdateHandler interface {
	Dispatch(ctx context.Context, u application.Update)
}

type rateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RealTelegramBotAdapter talks to the Bot API: it long-polls updates, hands
// them to the conversation and carries out its replies.
type RealTelegramBotAdapter struct {
	bot         botAPI
	cfg         *config.BotConfig
	rateLimiter rateLimiter
	tr          *i18n.Translator
	log         *zerolog.Logger

	adminIDsMap   map[int64]struct{}
	updateWorkers int
	cancelPolling context.CancelFunc
}

// NewRealTelegramBotAdapter connects to Telegram. rateLimiter may be nil.
func NewRealTelegramBotAdapter(cfg *config.BotConfig, rl *red.RateLimiter, tr *i18n.Translator, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	var limiter rateLimiter
	if rl != nil {
		limiter = rl
	}
	return newAdapter(bot, cfg, limiter, tr, logger), nil
}

func newAdapter(bot botAPI, cfg *config.BotConfig, rl rateLimiter, tr *i18n.Translator, logger *zerolog.Logger) *RealTelegramBotAdapter {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	adminMap := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}
	l := logger.With().Str("component", "telegram").Logger()
	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		rateLimiter:   rl,
		tr:            tr,
		log:           &l,
		adminIDsMap:   adminMap,
		updateWorkers: workers,
	}
}

// StartPolling runs until ctx is canceled. Updates are sharded by sender so
// each user's updates are handled one at a time and in order.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context, h UpdateHandler) error {
	if h == nil {
		return errors.New("update handler is nil")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query"}
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	shards := make([]chan tgbotapi.Update, r.updateWorkers)
	for i := range shards {
		shards[i] = make(chan tgbotapi.Update, 32)
		wg.Add(1)
		go func(id int, in <-chan tgbotapi.Update) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up, ok := <-in:
					if !ok {
						return
					}
					r.handleUpdate(ctx, h, up)
				}
			}
		}(i, shards[i])
	}
	r.log.Info().Int("workers", r.updateWorkers).Msg("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			wg.Wait()
			return nil
		case up, ok := <-updates:
			if !ok {
				cancel()
				wg.Wait()
				return errors.New("telegram updates channel closed")
			}
			id := senderID(up)
			if id == 0 {
				continue
			}
			select {
			case shards[shardFor(id, len(shards))] <- up:
			case <-ctx.Done():
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func shardFor(tgID int64, n int) int {
	if tgID < 0 {
		tgID = -tgID
	}
	return int(tgID % int64(n))
}

func senderID(up tgbotapi.Update) int64 {
	switch {
	case up.CallbackQuery != nil && up.CallbackQuery.From != nil:
		return up.CallbackQuery.From.ID
	case up.Message != nil && up.Message.From != nil:
		return up.Message.From.ID
	}
	return 0
}

func (r *RealTelegramBotAdapter) isAdmin(tgID int64) bool {
	_, ok := r.adminIDsMap[tgID]
	return ok
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, h UpdateHandler, up tgbotapi.Update) {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	if up.CallbackQuery != nil {
		// Stop the client spinner whatever happens next.
		defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(up.CallbackQuery.ID, "")) }()
	}
	u, ok := toUpdate(up)
	if !ok {
		return
	}
	if !r.allow(ctx, u) {
		return
	}
	h.Dispatch(ctx, u)
}

// allow applies the per-user update budget; admins are exempt and limiter
// failures let the update through.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, u application.Update) bool {
	if r.rateLimiter == nil || r.cfg.RateLimit <= 0 || r.isAdmin(u.TelegramID) {
		return true
	}
	ok, err := r.rateLimiter.Allow(ctx, red.UserUpdatesKey(u.TelegramID), r.cfg.RateLimit, time.Minute)
	if err != nil {
		r.log.Warn().Err(err).Int64("tg_id", u.TelegramID).Msg("rate limiter unavailable")
		return true
	}
	if !ok {
		metrics.IncTelegramRateLimited()
		_ = r.SendMessage(ctx, u.ChatID, r.tr.T("rate_limited"))
	}
	return ok
}

// commandButtons maps slash commands onto the menu buttons they mirror.
var commandButtons = map[string]string{
	"new":    application.LabelRegisterAd,
	"myads":  application.LabelMyAds,
	"help":   application.LabelHelp,
	"cancel": application.LabelCancel,
	"menu":   application.LabelBackToMenu,
}

// toUpdate converts a Bot API update. Group chats and service messages are dropped.
func toUpdate(up tgbotapi.Update) (application.Update, bool) {
	if cq := up.CallbackQuery; cq != nil {
		if cq.From == nil {
			return application.Update{}, false
		}
		u := application.Update{
			Kind:       application.KindCallback,
			TelegramID: cq.From.ID,
			ChatID:     cq.From.ID,
			FirstName:  cq.From.FirstName,
			LastName:   cq.From.LastName,
			Username:   cq.From.UserName,
			Text:       strings.TrimSpace(cq.Data),
		}
		if cq.Message != nil && cq.Message.Chat != nil {
			u.ChatID = cq.Message.Chat.ID
		}
		return u, true
	}

	m := up.Message
	if m == nil || m.From == nil || m.Chat == nil || !m.Chat.IsPrivate() {
		return application.Update{}, false
	}
	u := application.Update{
		TelegramID: m.From.ID,
		ChatID:     m.Chat.ID,
		FirstName:  m.From.FirstName,
		LastName:   m.From.LastName,
		Username:   m.From.UserName,
	}
	switch {
	case m.IsCommand():
		cmd := m.Command()
		if cmd == "start" {
			u.Kind = application.KindStart
			return u, true
		}
		if label, ok := commandButtons[cmd]; ok {
			u.Kind = application.KindButton
			u.Text = label
			return u, true
		}
		u.Kind = application.KindText
		u.Text = m.Text
	case m.Contact != nil:
		u.Kind = application.KindContact
		u.Contact = &application.Contact{PhoneNumber: m.Contact.PhoneNumber, UserID: m.Contact.UserID}
	case m.Location != nil:
		u.Kind = application.KindLocation
		u.Location = &application.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
	case len(m.Photo) > 0:
		// Telegram lists sizes ascending; the last one is the original.
		p := m.Photo[len(m.Photo)-1]
		u.Kind = application.KindPhoto
		u.Photo = &application.Photo{FileID: p.FileID, FileSize: p.FileSize}
	case m.Document != nil && strings.HasPrefix(m.Document.MimeType, "image/"):
		u.Kind = application.KindPhoto
		u.Photo = &application.Photo{FileID: m.Document.FileID, FileSize: m.Document.FileSize}
	case m.Text != "":
		u.Kind = application.KindText
		u.Text = m.Text
	default:
		return application.Update{}, false
	}
	return u, true
}

