package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/shoksin/expenseBot/internal/clients/rates"
	"github.com/shoksin/expenseBot/internal/clients/tg"
	"github.com/shoksin/expenseBot/internal/config"
	"github.com/shoksin/expenseBot/internal/helpers/dbutils"
	"github.com/shoksin/expenseBot/internal/logger"
	"github.com/shoksin/expenseBot/internal/metrics"
	"github.com/shoksin/expenseBot/internal/models/db"
	"github.com/shoksin/expenseBot/internal/models/messages"
	"github.com/shoksin/expenseBot/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

func main() {
	logger.Info("Application start")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configService, err := config.New()
	if err != nil {
		logger.Fatal("Error to get config", "err", err)
	}
	cfg := configService.GetConfig()

	var logOutputs []string
	if cfg.LogFile != "" {
		logOutputs = append(logOutputs, cfg.LogFile)
	}
	if err := logger.Init(cfg.LogLevel, logOutputs...); err != nil {
		logger.Fatal("Error init logger", "err", err)
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.TracingEndpoint, cfg.ServiceName)
	if err != nil {
		logger.Fatal("Error init tracing", "err", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("Error shutdown tracing", "err", err)
		}
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsAddr)
		go metrics.Serve(metricsServer)
	}

	storage, closeStorage := newStorage(ctx, cfg.ConnectionStringDB)
	defer closeStorage()

	ratesClient := rates.New(cfg.RatesAPIURL, cfg.RatesAPIKey, rates.WithTimeout(configService.RatesTimeout()))

	// Оборачивание в Middleware функции обработки сообщения для метрик и трейсинга.
	handler := tracing.TracingMiddleware(metrics.MetricsMiddleware(tg.ProcessingMessages))

	tgClient, err := tg.New(configService, cfg.FileHost, cfg.UpdatesTimeout, handler)
	if err != nil {
		logger.Fatal("Error init telegram client", "err", err)
	}

	msgModel := messages.New(tgClient, storage, ratesClient)

	tgClient.ListenUpdates(ctx, msgModel)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutdown metrics server", "err", err)
		}
	}

	logger.Info("Application stop")
}

// newStorage Хранилище расходов: PostgreSQL при заданной строке подключения, иначе в памяти.
func newStorage(ctx context.Context, connString string) (messages.ExpenseStorage, func()) {
	if connString == "" {
		logger.Warning("connection_string_db is empty, expenses are kept in memory")
		return db.NewMemoryStorage(), func() {}
	}

	conn, err := dbutils.NewDBConnect(ctx, connString)
	if err != nil {
		logger.Fatal("Error connect to database", "err", err)
	}
	return db.NewExpenseStorage(conn), func() {
		if err := conn.Close(); err != nil {
			logger.Error("Error close database", "err", err)
		}
	}
}
