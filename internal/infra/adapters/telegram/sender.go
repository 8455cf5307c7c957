package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"photo-market/internal/application"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/adapter"
)

// maxDownloadBytes mirrors the Bot API download limit.
const maxDownloadBytes = 20 << 20

// Telegram caps captions at 1024 characters.
const maxCaptionRunes = 1024

// downloadTimeout caps a single file download from the Bot API.
const downloadTimeout = 30 * time.Second

var httpClient = &http.Client{Timeout: downloadTimeout}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendKeyboard sends text with a reply keyboard; nil rows remove the current one.
func (r *RealTelegramBotAdapter) SendKeyboard(ctx context.Context, chatID int64, text string, rows [][]adapter.ReplyButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = replyMarkup(rows)
	_, err := r.bot.Send(msg)
	return err
}

func replyMarkup(rows [][]adapter.ReplyButton) interface{} {
	if len(rows) == 0 {
		return tgbotapi.NewRemoveKeyboard(false)
	}
	kbRows := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kr := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, btn := range row {
			switch {
			case btn.RequestContact:
				kr = append(kr, tgbotapi.NewKeyboardButtonContact(btn.Text))
			case btn.RequestLocation:
				kr = append(kr, tgbotapi.NewKeyboardButtonLocation(btn.Text))
			default:
				kr = append(kr, tgbotapi.NewKeyboardButton(btn.Text))
			}
		}
		kbRows = append(kbRows, kr)
	}
	kb := tgbotapi.NewReplyKeyboard(kbRows...)
	kb.ResizeKeyboard = true
	return kb
}

// SendButtons sends a message with inline buttons.
// - If btn.URL is set, the button opens a link
// - Else if btn.Data is set, the button sends callback data
// - Else a safe fallback uses btn.Text as callback data
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = inlineMarkup(rows)
	_, err := r.bot.Send(msg)
	return err
}

func inlineMarkup(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kr := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, kr)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}

// DownloadFile fetches a user-sent photo into memory.
func (r *RealTelegramBotAdapter) DownloadFile(ctx context.Context, fileID string) (*model.ImageBlob, error) {
	link, err := r.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", fileID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: http %d", resp.StatusCode)
	}
	content, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(content) > maxDownloadBytes {
		return nil, errors.New("file too large")
	}
	mime := http.DetectContentType(content)
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("unsupported file type %s", mime)
	}
	name := path.Base(req.URL.Path)
	if name == "" || name == "/" || name == "." {
		name = fileID + ".jpg"
	}
	return &model.ImageBlob{Content: content, Filename: name, MimeType: mime, Size: len(content)}, nil
}

// PublishAd posts the ad to the configured channel and returns the message id.
// Ads with photos go out as an album captioned on the first photo.
func (r *RealTelegramBotAdapter) PublishAd(ctx context.Context, ad *model.Ad) (int, error) {
	if r.cfg.ChannelID == 0 {
		return 0, errors.New("channel id not configured")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	caption := r.channelCaption(ad)

	if len(ad.Images) == 0 {
		m, err := r.bot.Send(tgbotapi.NewMessage(r.cfg.ChannelID, caption))
		if err != nil {
			return 0, err
		}
		return m.MessageID, nil
	}

	media := make([]interface{}, 0, len(ad.Images))
	for i, img := range ad.Images {
		p := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(img.URL))
		if i == 0 {
			p.Caption = caption
		}
		media = append(media, p)
	}
	msgs, err := r.bot.SendMediaGroup(tgbotapi.NewMediaGroup(r.cfg.ChannelID, media))
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, errors.New("empty media group response")
	}
	return msgs[0].MessageID, nil
}

func (r *RealTelegramBotAdapter) channelCaption(ad *model.Ad) string {
	text := r.tr.T("channel_post",
		ad.Title, ad.Description, ad.Condition,
		application.FormatToman(ad.Price),
		ad.City, ad.Province,
		fmt.Sprint(len(ad.Images)),
		strings.ReplaceAll(ad.Category, " ", "_"),
	)
	if rs := []rune(text); len(rs) > maxCaptionRunes {
		text = string(rs[:maxCaptionRunes-1]) + "…"
	}
	return text
}
