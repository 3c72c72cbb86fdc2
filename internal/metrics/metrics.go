package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shoksin/expenseBot/internal/clients/tg"
	"github.com/shoksin/expenseBot/internal/logger"
	"github.com/shoksin/expenseBot/internal/models/messages"
)

// Метрики.
var (
	InFlightRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tg",
		Subsystem: "messages",
		Name:      "in_flight", // Количество сообщений в обработке.
	})
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tg",
		Subsystem: "messages",
		Name:      "messages_total", // Общее количество сообщений.
	}, []string{"cmd"})
	SummaryResponseTime = promauto.NewSummary(prometheus.SummaryOpts{
		Namespace: "tg",
		Subsystem: "messages",
		Name:      "summary_response_time_seconds", // Время обработки сообщений.
		Objectives: map[float64]float64{
			0.5:  0.1,
			0.9:  0.01,
			0.99: 0.001,
		},
	})
	HistogramResponseTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tg",
			Subsystem: "messages",
			Name:      "histogram_response_time_seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"cmd"},
	)
)

var commands = []string{"start", "help", "cancel"}

var callbacks = []string{
	messages.OptionAddExpense,
	messages.OptionViewExpenses,
	messages.OptionConvertCurrency,
	messages.OptionUploadFile,
}

// NewServer HTTP-сервер для метрик (/metrics) и проверки живости (/healthz).
func NewServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Serve Запуск сервера метрик до остановки через Shutdown.
func Serve(srv *http.Server) {
	logger.Info("Start metrics service", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics public error", "err", err)
	}
}

// CommandLabel Определение команды для сохранения в метрике.
func CommandLabel(tgUpdate tgbotapi.Update) string {
	if tgUpdate.CallbackQuery != nil {
		for _, lbl := range callbacks {
			if tgUpdate.CallbackQuery.Data == lbl {
				return lbl
			}
		}
		return "unknown_option"
	}

	if tgUpdate.Message == nil {
		return "none"
	}
	if tgUpdate.Message.Document != nil {
		return "document"
	}
	msg := strings.TrimSpace(tgUpdate.Message.Text)
	for _, lbl := range commands {
		if msg == "/"+lbl {
			return lbl
		}
	}
	return "text"
}

// MetricsMiddleware Функция сбора метрик.
func MetricsMiddleware(next tg.HandlerFunc) tg.HandlerFunc {
	return func(ctx context.Context, tgUpdate tgbotapi.Update, c *tg.Client, msgModel *messages.Model) {
		InFlightRequests.Inc()
		defer InFlightRequests.Dec()

		startTime := time.Now()

		next.RunFunc(ctx, tgUpdate, c, msgModel)

		duration := time.Since(startTime)

		// Сохранение метрик продолжительности обработки.
		SummaryResponseTime.Observe(duration.Seconds())

		cmd := CommandLabel(tgUpdate)
		MessagesTotal.WithLabelValues(cmd).Inc()
		HistogramResponseTime.WithLabelValues(cmd).Observe(duration.Seconds())
	}
}
