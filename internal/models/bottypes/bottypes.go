package bottypes

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense Запись о расходе пользователя. После создания не изменяется.
type Expense struct {
	ID          string
	UserID      int64
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

// Типы для описания состава кнопок телеграм сообщения.
// Кнопка сообщения.
type TgInlineButton struct {
	DisplayName string
	Value       string
}

// Строка с кнопками сообщения.
type TgRowButtons []TgInlineButton

// Тип для хранения курсов валют относительно базовой в формате "USD" = 0.01659657
type ExchangeRate map[string]float64
