package db

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shoksin/expenseBot/internal/models/bottypes"
)

// MemoryStorage Хранилище расходов в памяти процесса, используется без строки подключения к БД.
type MemoryStorage struct {
	mu       sync.RWMutex
	expenses map[int64][]bottypes.Expense
	now      func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		expenses: make(map[int64][]bottypes.Expense),
		now:      time.Now,
	}
}

func (storage *MemoryStorage) AddExpense(_ context.Context, userID int64, amount decimal.Decimal, description string) (bottypes.Expense, error) {
	expense := newExpenseRecord(userID, amount, description, storage.now()).toExpense()

	storage.mu.Lock()
	defer storage.mu.Unlock()
	storage.expenses[userID] = append(storage.expenses[userID], expense)
	return expense, nil
}

func (storage *MemoryStorage) GetUserExpenses(_ context.Context, userID int64) ([]bottypes.Expense, error) {
	storage.mu.RLock()
	defer storage.mu.RUnlock()
	return slices.Clone(storage.expenses[userID]), nil
}
