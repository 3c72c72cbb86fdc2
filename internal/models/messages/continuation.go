package messages

import (
	"sync"

	"github.com/shopspring/decimal"
)

// step Шаг многошагового диалога, ожидающий ввода пользователя.
type step int

const (
	stepExpenseAmount step = iota + 1
	stepExpenseDescription
	stepConvertAmount
	stepBaseCurrency
	stepTargetCurrency
	stepFile
)

func (s step) String() string {
	switch s {
	case stepExpenseAmount:
		return "awaiting_expense_amount"
	case stepExpenseDescription:
		return "awaiting_expense_description"
	case stepConvertAmount:
		return "awaiting_convert_amount"
	case stepBaseCurrency:
		return "awaiting_base_currency"
	case stepTargetCurrency:
		return "awaiting_target_currency"
	case stepFile:
		return "awaiting_file"
	}
	return "unknown"
}

// continuation Следующий шаг и уже собранные аргументы.
// amount заполнен начиная с stepExpenseDescription/stepBaseCurrency, base только для stepTargetCurrency.
type continuation struct {
	step   step
	amount decimal.Decimal
	base   string
}

// continuations Не более одного ожидающего шага на чат.
type continuations struct {
	mu     sync.Mutex
	byChat map[int64]continuation
}

func newContinuations() *continuations {
	return &continuations{byChat: make(map[int64]continuation)}
}

// set Регистрация следующего шага, предыдущий шаг чата перезаписывается.
func (c *continuations) set(chatID int64, next continuation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byChat[chatID] = next
}

// take Извлечение шага: после вызова чат не ждёт ввода, пока обработчик не зарегистрирует следующий шаг.
func (c *continuations) take(chatID int64) (continuation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, ok := c.byChat[chatID]
	if ok {
		delete(c.byChat, chatID)
	}
	return next, ok
}
