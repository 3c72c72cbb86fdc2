// Package dbutils Хелпер-обёртка для выполнения запросов на базе sqlx и для функций подключения к БД (pgx).
package dbutils

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/jmoiron/sqlx"
	"github.com/shoksin/expenseBot/internal/logger"
)

// pgxLogger Логгер для pgx, реализующий интерфейс Logger пакета pgx.
type pgxLogger struct{}

func (pgxLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	args := make([]any, 0, len(data)*2)
	for k, v := range data {
		args = append(args, k, v)
	}

	switch level {
	case tracelog.LogLevelError:
		logger.Error(msg, args...)
	case tracelog.LogLevelWarn:
		logger.Warning(msg, args...)
	case tracelog.LogLevelInfo:
		logger.Info(msg, args...)
	default:
		logger.Debug(msg, args...)
	}
}

// NewDBConnect Подключение к БД через драйвер pgx и обёртку sqlx.
func NewDBConnect(ctx context.Context, connString string) (*sqlx.DB, error) {
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	cfg.Tracer = &tracelog.TraceLog{
		Logger:   pgxLogger{},
		LogLevel: tracelog.LogLevelWarn,
	}

	db := sqlx.NewDb(stdlib.OpenDB(*cfg), "pgx")
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
