package tg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shoksin/expenseBot/internal/logger"
	"github.com/shoksin/expenseBot/internal/models/bottypes"
	"github.com/shoksin/expenseBot/internal/models/messages"
)

type HandlerFunc func(ctx context.Context, tgUpdate tgbotapi.Update, c *Client, msgModel *messages.Model)

func (f HandlerFunc) RunFunc(ctx context.Context, tgUpdate tgbotapi.Update, c *Client, msgModel *messages.Model) {
	f(ctx, tgUpdate, c, msgModel)
}

// botAPI Часть tgbotapi.BotAPI, используемая клиентом.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Client struct {
	client                botAPI
	token                 string
	fileHost              string
	updatesTimeout        int
	handlerProcessingFunc HandlerFunc // Функция обработки входящих сообщений.
}

type TokenGetter interface {
	Token() string
}

func New(tokenGetter TokenGetter, fileHost string, updatesTimeout int, handlerProcessingFunc HandlerFunc) (*Client, error) {
	client, err := tgbotapi.NewBotAPI(tokenGetter.Token())
	if err != nil {
		return nil, fmt.Errorf("error NewBotAPI: %w", err)
	}
	logger.Info("Authorized on account", "username", client.Self.UserName)

	return newClient(client, tokenGetter.Token(), fileHost, updatesTimeout, handlerProcessingFunc), nil
}

func newClient(api botAPI, token, fileHost string, updatesTimeout int, handlerProcessingFunc HandlerFunc) *Client {
	return &Client{
		client:                api,
		token:                 token,
		fileHost:              fileHost,
		updatesTimeout:        updatesTimeout,
		handlerProcessingFunc: handlerProcessingFunc,
	}
}

func (c *Client) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text) //Создаём конфиг сообщения
	_, err := c.client.Send(msg)             //отправляем сообщение в telegram
	if err != nil {
		return fmt.Errorf("error sending message client.Send: %w", err)
	}
	return nil
}

// ShowInlineButtons Отображение сообщения с кнопками под ним.
func (c *Client) ShowInlineButtons(text string, buttons []bottypes.TgRowButtons, chatID int64) error {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		rowButtons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			rowButtons = append(rowButtons, tgbotapi.NewInlineKeyboardButtonData(b.DisplayName, b.Value))
		}
		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(rowButtons...))
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := c.client.Send(msg); err != nil {
		return fmt.Errorf("error sending inline buttons client.Send: %w", err)
	}
	return nil
}

// FileURL Ссылка на загруженный файл по пути файла на сервере телеграм.
func (c *Client) FileURL(_ context.Context, fileID string) (string, error) {
	file, err := c.client.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("error getting file client.GetFile: %w", err)
	}
	if file.FilePath == "" {
		return "", errors.New("file path is empty")
	}
	return BuildFileURL(c.fileHost, c.token, file.FilePath), nil
}

// BuildFileURL Формат: https://<host>/file/bot<token>/<path>.
func BuildFileURL(host, token, filePath string) string {
	return fmt.Sprintf("https://%s/file/bot%s/%s", host, token, strings.TrimPrefix(filePath, "/"))
}

// ListenUpdates Обработка обновлений по одному, пока не отменён ctx; порядок сообщений чата сохраняется.
func (c *Client) ListenUpdates(ctx context.Context, msgModel *messages.Model) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.updatesTimeout

	updates := c.client.GetUpdatesChan(u)
	logger.Info("Start listening for tg messages")

	for {
		select {
		case <-ctx.Done():
			c.client.StopReceivingUpdates()
			logger.Info("Stop listening for tg messages")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			c.handlerProcessingFunc.RunFunc(ctx, update, c, msgModel)
		}
	}
}

// ProcessingMessages Преобразование обновления телеграм в сообщение модели и его обработка.
func ProcessingMessages(ctx context.Context, tgUpdate tgbotapi.Update, c *Client, msgModel *messages.Model) {
	msg, ok := ToMessage(tgUpdate)
	if !ok {
		return
	}

	if tgUpdate.CallbackQuery != nil {
		// Подтверждение нажатия кнопки, иначе клиент показывает индикатор загрузки.
		if _, err := c.client.Request(tgbotapi.NewCallback(tgUpdate.CallbackQuery.ID, "")); err != nil {
			logger.Warning("Error answer callback query", "err", err)
		}
	}

	if err := msgModel.IncomingMessage(ctx, msg); err != nil {
		logger.Error("Error processing message", "chat_id", msg.ChatID, "user_id", msg.UserID, "err", err)
	}
}

// ToMessage Обновления без сообщения или без кнопки игнорируются.
func ToMessage(tgUpdate tgbotapi.Update) (messages.Message, bool) {
	switch {
	case tgUpdate.Message != nil && tgUpdate.Message.Chat != nil:
		m := tgUpdate.Message
		msg := messages.Message{
			Text:   m.Text,
			ChatID: m.Chat.ID,
		}
		if m.From != nil {
			msg.UserID = m.From.ID
			msg.UserName = m.From.UserName
		}
		if m.Document != nil {
			msg.Document = &messages.Document{FileID: m.Document.FileID, FileName: m.Document.FileName}
		}
		return msg, true

	case tgUpdate.CallbackQuery != nil && tgUpdate.CallbackQuery.Message != nil && tgUpdate.CallbackQuery.Message.Chat != nil:
		q := tgUpdate.CallbackQuery
		msg := messages.Message{
			Text:       q.Data,
			ChatID:     q.Message.Chat.ID,
			IsCallback: true,
		}
		if q.From != nil {
			msg.UserID = q.From.ID
			msg.UserName = q.From.UserName
		}
		return msg, true
	}
	return messages.Message{}, false
}
