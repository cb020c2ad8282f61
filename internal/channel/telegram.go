package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alextopher/cosmosnaps/internal/publish"
)

// TelegramMaxPhotoSize is the largest photo the Bot API accepts (10MB)
const TelegramMaxPhotoSize = 10 * 1024 * 1024

// Telegram posts photos through the Telegram Bot API
type Telegram struct {
	bot *tgbotapi.BotAPI
}

// NewTelegram creates a Telegram channel from a bot token. The token is
// checked against the API before returning. Every API call, uploads included,
// is bounded by timeout.
func NewTelegram(token string, timeout time.Duration) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, tgbotapi.APIEndpoint, timeout)
}

// NewTelegramWithEndpoint is NewTelegram against a custom Bot API server.
// endpoint has the form "https://host/bot%s/%s".
func NewTelegramWithEndpoint(token, endpoint string, timeout time.Duration) (*Telegram, error) {
	if token == "" {
		return nil, errors.New("telegram: empty bot token")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: orDefault(timeout)})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	return &Telegram{bot: bot}, nil
}

// SendPhoto uploads the photo to channelID, which is either a numeric chat id
// or a public channel name like "@cosmosnaps".
func (t *Telegram) SendPhoto(ctx context.Context, channelID string, photo publish.Photo, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if channelID == "" {
		return errors.New("telegram: empty channel id")
	}

	file := tgbotapi.FileBytes{Name: photo.Name, Bytes: photo.Data}

	var msg tgbotapi.PhotoConfig
	if id, err := strconv.ParseInt(channelID, 10, 64); err == nil {
		msg = tgbotapi.NewPhoto(id, file)
	} else {
		msg = tgbotapi.NewPhotoToChannel(channelID, file)
	}
	msg.Caption = caption

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}
