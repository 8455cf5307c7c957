// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"photo-market/internal/domain/model"
)

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// ReplyButton is a custom-keyboard key; the request flags ask Telegram to share
// the user's contact or location when pressed.
type ReplyButton struct {
	Text            string
	RequestContact  bool
	RequestLocation bool
}

// TelegramBotAdapter is what the conversation needs from the messaging transport.
type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	// SendKeyboard replaces the reply keyboard; nil rows remove it.
	SendKeyboard(ctx context.Context, chatID int64, text string, rows [][]ReplyButton) error
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
	// DownloadFile fetches a photo the user sent.
	DownloadFile(ctx context.Context, fileID string) (*model.ImageBlob, error)
}

// ChannelPublisher posts accepted ads to the public channel.
type ChannelPublisher interface {
	PublishAd(ctx context.Context, ad *model.Ad) (messageID int, err error)
}
