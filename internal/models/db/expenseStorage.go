package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/shoksin/expenseBot/internal/helpers/dbutils"
	"github.com/shoksin/expenseBot/internal/models/bottypes"
)

// ExpenseRecordDB Строка таблицы expenses.
type ExpenseRecordDB struct {
	ID          string          `db:"id"`
	UserID      int64           `db:"user_id"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (r ExpenseRecordDB) toExpense() bottypes.Expense {
	return bottypes.Expense{
		ID:          r.ID,
		UserID:      r.UserID,
		Amount:      r.Amount,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

// ExpenseStorage Хранилище расходов в PostgreSQL.
type ExpenseStorage struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewExpenseStorage(db *sqlx.DB) *ExpenseStorage {
	return &ExpenseStorage{db: db, now: time.Now}
}

func newExpenseRecord(userID int64, amount decimal.Decimal, description string, now time.Time) ExpenseRecordDB {
	return ExpenseRecordDB{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Description: description,
		CreatedAt:   now,
	}
}

// AddExpense Сохранение нового расхода с текущим временем.
func (storage *ExpenseStorage) AddExpense(ctx context.Context, userID int64, amount decimal.Decimal, description string) (bottypes.Expense, error) {
	const sqlString = `
		INSERT INTO expenses (id, user_id, amount, description, created_at)
		VALUES (:id, :user_id, :amount, :description, :created_at);`

	rec := newExpenseRecord(userID, amount, description, storage.now())
	if _, err := dbutils.NamedExec(ctx, storage.db, sqlString, rec); err != nil {
		return bottypes.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return rec.toExpense(), nil
}

// GetUserExpenses Все расходы пользователя в порядке добавления.
func (storage *ExpenseStorage) GetUserExpenses(ctx context.Context, userID int64) ([]bottypes.Expense, error) {
	const sqlString = `
		SELECT id, user_id, amount, description, created_at
		FROM expenses
		WHERE user_id = $1
		ORDER BY created_at, id;`

	var records []ExpenseRecordDB
	if err := dbutils.Select(ctx, storage.db, &records, sqlString, userID); err != nil {
		return nil, fmt.Errorf("select expenses: %w", err)
	}

	expenses := make([]bottypes.Expense, 0, len(records))
	for _, r := range records {
		expenses = append(expenses, r.toExpense())
	}
	return expenses, nil
}
