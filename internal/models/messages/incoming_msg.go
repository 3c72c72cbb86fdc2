package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/shoksin/expenseBot/internal/helpers/timeutils"
	"github.com/shoksin/expenseBot/internal/logger"
	"github.com/shoksin/expenseBot/internal/models/bottypes"
)

// Команды и значения кнопок главного меню.
const (
	CmdStart  = "/start"
	CmdHelp   = "/help"
	CmdCancel = "/cancel"

	OptionAddExpense      = "add_expense"
	OptionViewExpenses    = "view_expenses"
	OptionConvertCurrency = "convert_currency"
	OptionUploadFile      = "upload_file"
)

const (
	txtStart          = "Welcome to the personal finance bot! What would you like to do?"
	txtChooseOption   = "Choose an option:"
	txtUnknownCommand = "Sorry, I don't know this command. Send /start to begin."
	txtHelp           = "I help you track expenses, convert currencies and share files. Send /start to open the menu, /cancel to abort the current action."
	txtCancelled      = "Action cancelled."
	txtNothingPending = "There is nothing to cancel."
	txtInvalidOption  = "Invalid option. Please choose again."
	txtInternalError  = "Something went wrong. Please try again later."

	txtEnterAmount      = "Please enter the amount:"
	txtInvalidAmount    = "Invalid input. Please enter a valid amount."
	txtEnterDescription = "Enter the expense description:"
	txtEmptyDescription = "The description cannot be empty. Please enter the expense description:"
	txtExpenseAdded     = "Expense added successfully!"

	txtTotalExpenses  = "Your total expenses: %s USD"
	txtExpensesHeader = "Here are your expenses:"
	txtExpenseLine    = "%s USD - %s (%s)"

	txtEnterBaseCurrency   = "Please enter the base currency (e.g. USD):"
	txtEnterTargetCurrency = "Please enter the target currency (e.g. EUR):"
	txtConverted           = "%s %s is equivalent to %s %s"
	txtRateUnavailable     = "Could not fetch the exchange rate. Please try again later."

	txtUploadFile   = "Please upload a file:"
	txtFileUploaded = "Thanks for uploading the file! URL: %s"
	txtNoFile       = "No file found. Please upload a file."
)

var (
	// ErrInvalidAmount Введённый текст не является положительным числом.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrMissingDocument В сообщении нет файла.
	ErrMissingDocument = errors.New("no document attached")
)

var mainMenu = []bottypes.TgRowButtons{
	{
		{DisplayName: "Add expense", Value: OptionAddExpense},
		{DisplayName: "View expenses", Value: OptionViewExpenses},
	},
	{
		{DisplayName: "Convert currency", Value: OptionConvertCurrency},
		{DisplayName: "Upload file", Value: OptionUploadFile},
	},
}

// MessagesSender Интерфейс для работы с сообщениями.
type MessagesSender interface {
	SendMessage(chatID int64, text string) error
	ShowInlineButtons(text string, buttons []bottypes.TgRowButtons, chatID int64) error
	// FileURL Ссылка на скачивание загруженного файла по его идентификатору.
	FileURL(ctx context.Context, fileID string) (string, error)
}

// ExpenseStorage Интерфейс хранилища расходов: только добавление и чтение.
type ExpenseStorage interface {
	AddExpense(ctx context.Context, userID int64, amount decimal.Decimal, description string) (bottypes.Expense, error)
	GetUserExpenses(ctx context.Context, userID int64) ([]bottypes.Expense, error)
}

// ExchangeRates Интерфейс для получения курса валют.
type ExchangeRates interface {
	Rate(ctx context.Context, base, target string) (float64, error)
}

// Document Файл, приложенный к сообщению.
type Document struct {
	FileID   string
	FileName string
}

// Message Входящее сообщение или нажатие кнопки (IsCallback, значение кнопки в Text).
type Message struct {
	Text       string
	ChatID     int64
	UserID     int64
	UserName   string
	IsCallback bool
	Document   *Document
}

// Model Модель бота (клиент, хранилище, курсы валют, ожидаемые шаги диалогов).
type Model struct {
	tgClient MessagesSender
	storage  ExpenseStorage
	rates    ExchangeRates
	steps    *continuations
}

func New(tgClient MessagesSender, storage ExpenseStorage, rates ExchangeRates) *Model {
	return &Model{
		tgClient: tgClient,
		storage:  storage,
		rates:    rates,
		steps:    newContinuations(),
	}
}

// IncomingMessage Обработка входящего сообщения: команда, кнопка меню или ответ на ожидаемый шаг.
func (m *Model) IncomingMessage(ctx context.Context, msg Message) error {
	if msg.IsCallback {
		logger.Info("Callback query", "user_id", msg.UserID, "chat_id", msg.ChatID, "data", msg.Text)
		return m.handleMenuSelection(ctx, msg)
	}

	switch strings.TrimSpace(msg.Text) {
	case CmdStart:
		logger.Info("Command", "user_id", msg.UserID, "chat_id", msg.ChatID, "command", CmdStart)
		return m.handleStart(msg)
	case CmdHelp:
		return m.tgClient.SendMessage(msg.ChatID, txtHelp)
	case CmdCancel:
		if _, ok := m.steps.take(msg.ChatID); !ok {
			return m.tgClient.SendMessage(msg.ChatID, txtNothingPending)
		}
		return m.tgClient.SendMessage(msg.ChatID, txtCancelled)
	}

	next, ok := m.steps.take(msg.ChatID)
	if !ok {
		return m.tgClient.SendMessage(msg.ChatID, txtUnknownCommand)
	}
	logger.Debug("Continue dialog", "chat_id", msg.ChatID, "step", next.step)

	switch next.step {
	case stepExpenseAmount:
		return m.expenseAmount(msg)
	case stepExpenseDescription:
		return m.expenseDescription(ctx, msg, next.amount)
	case stepConvertAmount:
		return m.convertAmount(msg)
	case stepBaseCurrency:
		return m.convertBaseCurrency(msg, next.amount)
	case stepTargetCurrency:
		return m.convertTargetCurrency(ctx, msg, next.amount, next.base)
	case stepFile:
		return m.handleUpload(ctx, msg)
	}
	return fmt.Errorf("unknown dialog step %d", next.step)
}

func (m *Model) handleStart(msg Message) error {
	if err := m.tgClient.SendMessage(msg.ChatID, txtStart); err != nil {
		return err
	}
	return m.tgClient.ShowInlineButtons(txtChooseOption, mainMenu, msg.ChatID)
}

// handleMenuSelection Выбор пункта меню перезаписывает незавершённый диалог чата.
func (m *Model) handleMenuSelection(ctx context.Context, msg Message) error {
	switch msg.Text {
	case OptionAddExpense:
		return m.ask(msg.ChatID, txtEnterAmount, continuation{step: stepExpenseAmount})
	case OptionConvertCurrency:
		return m.ask(msg.ChatID, txtEnterAmount, continuation{step: stepConvertAmount})
	case OptionUploadFile:
		return m.ask(msg.ChatID, txtUploadFile, continuation{step: stepFile})
	case OptionViewExpenses:
		return m.viewExpenses(ctx, msg)
	}
	return m.tgClient.SendMessage(msg.ChatID, txtInvalidOption)
}

// ask Запрос ввода и регистрация следующего шага.
func (m *Model) ask(chatID int64, prompt string, next continuation) error {
	m.steps.set(chatID, next)
	return m.tgClient.SendMessage(chatID, prompt)
}

func (m *Model) viewExpenses(ctx context.Context, msg Message) error {
	expenses, err := m.storage.GetUserExpenses(ctx, msg.UserID)
	if err != nil {
		return m.internalError(msg.ChatID, fmt.Errorf("get user expenses: %w", err))
	}

	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}

	if err := m.tgClient.SendMessage(msg.ChatID, fmt.Sprintf(txtTotalExpenses, total.String())); err != nil {
		return err
	}
	if len(expenses) == 0 {
		return nil
	}

	if err := m.tgClient.SendMessage(msg.ChatID, txtExpensesHeader); err != nil {
		return err
	}
	for _, e := range expenses {
		line := fmt.Sprintf(txtExpenseLine, e.Amount.String(), e.Description, timeutils.FormatDateTime(e.CreatedAt))
		if err := m.tgClient.SendMessage(msg.ChatID, line); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) expenseAmount(msg Message) error {
	amount, err := ParseAmount(msg.Text)
	if err != nil {
		return m.tgClient.SendMessage(msg.ChatID, txtInvalidAmount)
	}
	return m.ask(msg.ChatID, txtEnterDescription, continuation{step: stepExpenseDescription, amount: amount})
}

func (m *Model) expenseDescription(ctx context.Context, msg Message, amount decimal.Decimal) error {
	// Фото, стикер или файл без подписи: сумма сохраняется, описание запрашивается повторно.
	if strings.TrimSpace(msg.Text) == "" {
		return m.ask(msg.ChatID, txtEmptyDescription, continuation{step: stepExpenseDescription, amount: amount})
	}

	expense, err := m.storage.AddExpense(ctx, msg.UserID, amount, msg.Text)
	if err != nil {
		return m.internalError(msg.ChatID, fmt.Errorf("add expense: %w", err))
	}
	logger.Info("Added expense", "user_id", msg.UserID, "chat_id", msg.ChatID, "expense_id", expense.ID, "description", expense.Description)
	return m.tgClient.SendMessage(msg.ChatID, txtExpenseAdded)
}

func (m *Model) convertAmount(msg Message) error {
	amount, err := ParseAmount(msg.Text)
	if err != nil {
		return m.tgClient.SendMessage(msg.ChatID, txtInvalidAmount)
	}
	return m.ask(msg.ChatID, txtEnterBaseCurrency, continuation{step: stepBaseCurrency, amount: amount})
}

func (m *Model) convertBaseCurrency(msg Message, amount decimal.Decimal) error {
	base := NormalizeCurrency(msg.Text)
	return m.ask(msg.ChatID, txtEnterTargetCurrency, continuation{step: stepTargetCurrency, amount: amount, base: base})
}

func (m *Model) convertTargetCurrency(ctx context.Context, msg Message, amount decimal.Decimal, base string) error {
	target := NormalizeCurrency(msg.Text)

	rate, err := m.rates.Rate(ctx, base, target)
	if err != nil {
		logger.Warning("Exchange rate lookup failed", "chat_id", msg.ChatID, "base", base, "target", target, "err", err)
		return m.tgClient.SendMessage(msg.ChatID, txtRateUnavailable)
	}

	converted := amount.Mul(decimal.NewFromFloat(rate))
	text := fmt.Sprintf(txtConverted, amount.String(), base, converted.StringFixed(2), target)
	return m.tgClient.SendMessage(msg.ChatID, text)
}

func (m *Model) handleUpload(ctx context.Context, msg Message) error {
	if msg.Document == nil || msg.Document.FileID == "" {
		logger.Debug("Upload without document", "chat_id", msg.ChatID, "err", ErrMissingDocument)
		return m.tgClient.SendMessage(msg.ChatID, txtNoFile)
	}

	fileURL, err := m.tgClient.FileURL(ctx, msg.Document.FileID)
	if err != nil {
		return m.internalError(msg.ChatID, fmt.Errorf("get file url: %w", err))
	}
	logger.Info("File uploaded", "user_id", msg.UserID, "chat_id", msg.ChatID, "file_name", msg.Document.FileName)
	return m.tgClient.SendMessage(msg.ChatID, fmt.Sprintf(txtFileUploaded, fileURL))
}

// internalError Сообщение пользователю о внутренней ошибке; исходная ошибка возвращается для логирования.
func (m *Model) internalError(chatID int64, err error) error {
	if sendErr := m.tgClient.SendMessage(chatID, txtInternalError); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

// Ограничения суммы: не больше maxAmountIntDigits цифр в целой части и maxAmountFracDigits знаков после запятой.
const (
	maxAmountIntDigits  = 15
	maxAmountFracDigits = 8
)

// ParseAmount Разбор суммы: положительное число, допускается запятая как десятичный разделитель.
func ParseAmount(text string) (decimal.Decimal, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	// Порядок проверяется до любых операций со значением: String и Cmp раскрывают экспоненту целиком.
	exp := int64(amount.Exponent())
	if exp < -maxAmountFracDigits || int64(amount.NumDigits())+exp > maxAmountIntDigits {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, text)
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not positive", ErrInvalidAmount, text)
	}
	return amount, nil
}

// NormalizeCurrency Код валюты в верхнем регистре, без проверки по списку ISO.
func NormalizeCurrency(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}
