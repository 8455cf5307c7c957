package telegram

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/adapter"
)

var (
	_ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)
	_ adapter.ChannelPublisher   = (*NoopBotAdapter)(nil)
)

// NoopBotAdapter logs outgoing traffic instead of calling Telegram.
// It backs bot.mode=noop, which runs the API and scheduler without a bot.
type NoopBotAdapter struct {
	log    *zerolog.Logger
	nextID int64
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	l := logger.With().Str("component", "noop-telegram").Logger()
	return &NoopBotAdapter{log: &l}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	b.log.Debug().Int64("chat_id", chatID).Str("text", text).Msg("send message")
	return ctx.Err()
}

func (b *NoopBotAdapter) SendKeyboard(ctx context.Context, chatID int64, text string, rows [][]adapter.ReplyButton) error {
	b.log.Debug().Int64("chat_id", chatID).Str("text", text).Int("rows", len(rows)).Msg("send keyboard")
	return ctx.Err()
}

func (b *NoopBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	b.log.Debug().Int64("chat_id", chatID).Str("text", text).Int("rows", len(rows)).Msg("send buttons")
	return ctx.Err()
}

func (b *NoopBotAdapter) DownloadFile(ctx context.Context, fileID string) (*model.ImageBlob, error) {
	return &model.ImageBlob{Content: []byte(fileID), Filename: fileID + ".jpg", MimeType: "image/jpeg", Size: len(fileID)}, ctx.Err()
}

func (b *NoopBotAdapter) PublishAd(ctx context.Context, ad *model.Ad) (int, error) {
	id := int(atomic.AddInt64(&b.nextID, 1))
	b.log.Info().Str("ad_id", ad.ID).Int("message_id", id).Msg("publish ad")
	return id, ctx.Err()
}
