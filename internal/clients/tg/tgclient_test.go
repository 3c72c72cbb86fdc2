package tg

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shoksin/expenseBot/internal/models/bottypes"
	"github.com/shoksin/expenseBot/internal/models/db"
	"github.com/shoksin/expenseBot/internal/models/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBotAPI struct {
	sent      []tgbotapi.MessageConfig
	requests  []tgbotapi.Chattable
	files     map[string]string
	updates   chan tgbotapi.Update
	stopCalls int
}

func (f *fakeBotAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{}, nil
}

func (f *fakeBotAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBotAPI) GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error) {
	path, ok := f.files[config.FileID]
	if !ok {
		return tgbotapi.File{}, errors.New("Bad Request: invalid file_id")
	}
	return tgbotapi.File{FileID: config.FileID, FilePath: path}, nil
}

func (f *fakeBotAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeBotAPI) StopReceivingUpdates() {
	f.stopCalls++
}

type stubRates struct{}

func (stubRates) Rate(context.Context, string, string) (float64, error) { return 1.5, nil }

func newTestClient(api *fakeBotAPI) *Client {
	return newClient(api, "TOKEN", "api.telegram.org", 60, ProcessingMessages)
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID, UserName: "user"},
	}}
}

func callbackUpdate(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    data,
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestBuildFileURL(t *testing.T) {
	assert.Equal(t,
		"https://api.telegram.org/file/bot123:abc/documents/file_7.pdf",
		BuildFileURL("api.telegram.org", "123:abc", "documents/file_7.pdf"))
	assert.Equal(t,
		"https://files.local/file/botT/a.txt",
		BuildFileURL("files.local", "T", "/a.txt"))
}

func TestClient_FileURL(t *testing.T) {
	api := &fakeBotAPI{files: map[string]string{"f1": "documents/report.csv", "empty": ""}}
	c := newTestClient(api)

	got, err := c.FileURL(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "https://api.telegram.org/file/botTOKEN/documents/report.csv", got)

	_, err = c.FileURL(context.Background(), "missing")
	assert.Error(t, err)
	_, err = c.FileURL(context.Background(), "empty")
	assert.Error(t, err)
}

func TestClient_ShowInlineButtons(t *testing.T) {
	api := &fakeBotAPI{}
	c := newTestClient(api)

	buttons := []bottypes.TgRowButtons{
		{{DisplayName: "A", Value: "a"}, {DisplayName: "B", Value: "b"}},
		{{DisplayName: "C", Value: "c"}},
	}
	require.NoError(t, c.ShowInlineButtons("pick", buttons, 5))
	require.Len(t, api.sent, 1)

	markup, ok := api.sent[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	require.NotNil(t, markup.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "c", *markup.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "pick", api.sent[0].Text)
	assert.Equal(t, int64(5), api.sent[0].ChatID)
}

func TestToMessage(t *testing.T) {
	doc := textUpdate(1, "")
	doc.Message.Document = &tgbotapi.Document{FileID: "fid", FileName: "a.pdf"}
	msg, ok := ToMessage(doc)
	require.True(t, ok)
	require.NotNil(t, msg.Document)
	assert.Equal(t, "fid", msg.Document.FileID)
	assert.False(t, msg.IsCallback)

	msg, ok = ToMessage(callbackUpdate(2, messages.OptionViewExpenses))
	require.True(t, ok)
	assert.True(t, msg.IsCallback)
	assert.Equal(t, messages.OptionViewExpenses, msg.Text)
	assert.Equal(t, int64(2), msg.ChatID)

	_, ok = ToMessage(tgbotapi.Update{})
	assert.False(t, ok)
}

func TestListenUpdates_ConvertFlow(t *testing.T) {
	api := &fakeBotAPI{updates: make(chan tgbotapi.Update, 10)}
	c := newTestClient(api)
	model := messages.New(c, db.NewMemoryStorage(), stubRates{})

	for _, u := range []tgbotapi.Update{
		callbackUpdate(7, messages.OptionConvertCurrency),
		textUpdate(7, "10"),
		textUpdate(7, "usd"),
		textUpdate(7, "eur"),
	} {
		api.updates <- u
	}
	close(api.updates)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.ListenUpdates(ctx, model)

	require.Len(t, api.requests, 1)
	require.NotEmpty(t, api.sent)
	assert.Equal(t, "10 USD is equivalent to 15.00 EUR", api.sent[len(api.sent)-1].Text)
}

func TestListenUpdates_StopsOnCancel(t *testing.T) {
	api := &fakeBotAPI{updates: make(chan tgbotapi.Update)}
	c := newTestClient(api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.ListenUpdates(ctx, messages.New(c, db.NewMemoryStorage(), stubRates{}))

	assert.Equal(t, 1, api.stopCalls)
}
