package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	api        *tgbotapi.BotAPI
	httpClient *http.Client
}

type CommandUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	Command  string
	Args     string
}

type PhotoUpdate struct {
	ChatID  int64
	UserID  int64
	FileID  string
	Caption string
}

type CallbackUpdate struct {
	CallbackID string
	ChatID     int64
	UserID     int64
	Data       string
}

type Handlers struct {
	OnCommand  func(context.Context, CommandUpdate) error
	OnPhoto    func(context.Context, PhotoUpdate) error
	OnCallback func(context.Context, CallbackUpdate) error
}

func NewBot(token string) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{
		api: api,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

func (b *Bot) Listen(ctx context.Context, handlers Handlers) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			if update.Message != nil && update.Message.From != nil {
				if len(update.Message.Photo) > 0 && handlers.OnPhoto != nil {
					// Telegram lists photo sizes smallest first.
					largest := update.Message.Photo[len(update.Message.Photo)-1]
					err := handlers.OnPhoto(ctx, PhotoUpdate{
						ChatID:  update.Message.Chat.ID,
						UserID:  update.Message.From.ID,
						FileID:  largest.FileID,
						Caption: update.Message.Caption,
					})
					if err != nil {
						return err
					}
					continue
				}

				if update.Message.IsCommand() && handlers.OnCommand != nil {
					err := handlers.OnCommand(ctx, CommandUpdate{
						ChatID:   update.Message.Chat.ID,
						UserID:   update.Message.From.ID,
						Username: update.Message.From.UserName,
						Command:  update.Message.Command(),
						Args:     update.Message.CommandArguments(),
					})
					if err != nil {
						return err
					}
					continue
				}
			}

			if update.CallbackQuery != nil && update.CallbackQuery.From != nil && handlers.OnCallback != nil {
				chatID := int64(0)
				if update.CallbackQuery.Message != nil {
					chatID = update.CallbackQuery.Message.Chat.ID
				}
				err := handlers.OnCallback(ctx, CallbackUpdate{
					CallbackID: update.CallbackQuery.ID,
					ChatID:     chatID,
					UserID:     update.CallbackQuery.From.ID,
					Data:       update.CallbackQuery.Data,
				})
				if err != nil {
					return err
				}
			}
		}
	}
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	_ = ctx
	return nil
}

// SendDecisionPrompt delivers a staged photo to a moderator with accept and
// decline controls carrying the given callback payloads. Returns the handle
// of the delivered message.
func (b *Bot) SendDecisionPrompt(ctx context.Context, chatID int64, attachmentPath string, caption *string, acceptData, declineData string) (int, error) {
	if b == nil || b.api == nil {
		return 0, fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return 0, fmt.Errorf("chat id is required")
	}
	if strings.TrimSpace(attachmentPath) == "" {
		return 0, fmt.Errorf("attachment path is required")
	}

	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(attachmentPath))
	if caption != nil {
		msg.Caption = *caption
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅", acceptData),
			tgbotapi.NewInlineKeyboardButtonData("❌", declineData),
		),
	)

	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send decision prompt: %w", err)
	}

	_ = ctx
	return sent.MessageID, nil
}

// PublishPhoto sends the photo and caption to the target channel. The target
// is either a numeric chat id or a channel username.
func (b *Bot) PublishPhoto(ctx context.Context, target string, attachmentPath string, caption *string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return fmt.Errorf("target channel is not configured")
	}

	var msg tgbotapi.PhotoConfig
	if chatID, err := strconv.ParseInt(target, 10, 64); err == nil {
		msg = tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(attachmentPath))
	} else {
		msg = tgbotapi.NewPhotoToChannel(target, tgbotapi.FilePath(attachmentPath))
	}
	if caption != nil {
		msg.Caption = *caption
	}

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("publish photo to %s: %w", target, err)
	}

	_ = ctx
	return nil
}

// ClearControls replaces a delivered prompt's inline keyboard with an empty
// one, leaving the photo and caption in place.
func (b *Bot) ClearControls(ctx context.Context, chatID int64, messageID int) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 || messageID == 0 {
		return fmt.Errorf("chat id and message id are required")
	}

	empty := tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	}
	cfg := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("clear message controls: %w", err)
	}

	_ = ctx
	return nil
}

func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(callbackID) == "" {
		return nil
	}

	cfg := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	_ = ctx
	return nil
}

// DownloadFile streams the submitted photo from Telegram. The second return
// value is a filename hint derived from the remote path.
func (b *Bot) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	if b == nil || b.api == nil {
		return nil, "", fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, "", fmt.Errorf("file id is required")
	}

	tgFile, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("get telegram file: %w", err)
	}

	fileURL := tgFile.Link(b.api.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create file request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download telegram file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, "", fmt.Errorf("unexpected telegram file status: %d", resp.StatusCode)
	}

	name := path.Base(strings.TrimSpace(tgFile.FilePath))
	if name == "." || name == "/" || name == "" {
		name = "photo.jpg"
	}

	return resp.Body, name, nil
}
