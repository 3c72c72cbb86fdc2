package tracing

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shoksin/expenseBot/internal/clients/tg"
	"github.com/shoksin/expenseBot/internal/logger"
	"github.com/shoksin/expenseBot/internal/models/messages"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tg-bot"

// Init Инициализация OpenTelemetry с экспортом по OTLP/HTTP (Jaeger и т.п.).
// Без endpoint остаётся глобальный no-op провайдер.
func Init(ctx context.Context, endpoint, serviceName string) (shutdown func(context.Context) error, err error) {
	if endpoint == "" {
		logger.Info("Tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)

	otel.SetTracerProvider(tp)
	logger.Info("Tracing enabled", "endpoint", endpoint)
	return tp.Shutdown, nil
}

func updateAttributes(tgUpdate tgbotapi.Update) []attribute.KeyValue {
	switch {
	case tgUpdate.Message != nil && tgUpdate.Message.Chat != nil:
		return []attribute.KeyValue{
			attribute.String("chat.id", strconv.FormatInt(tgUpdate.Message.Chat.ID, 10)),
			attribute.String("message.id", strconv.Itoa(tgUpdate.Message.MessageID)),
		}
	case tgUpdate.CallbackQuery != nil && tgUpdate.CallbackQuery.Message != nil && tgUpdate.CallbackQuery.Message.Chat != nil:
		return []attribute.KeyValue{
			attribute.String("chat.id", strconv.FormatInt(tgUpdate.CallbackQuery.Message.Chat.ID, 10)),
			attribute.String("callback.data", tgUpdate.CallbackQuery.Data),
		}
	}
	return []attribute.KeyValue{attribute.Int("update.id", tgUpdate.UpdateID)}
}

func TracingMiddleware(next tg.HandlerFunc) tg.HandlerFunc {
	return func(ctx context.Context, tgUpdate tgbotapi.Update, c *tg.Client, msgModel *messages.Model) {
		ctx, span := otel.Tracer(tracerName).Start(ctx, "ProcessingMessages",
			trace.WithAttributes(updateAttributes(tgUpdate)...),
		)
		defer span.End()

		if span.SpanContext().IsValid() {
			logger.Debug("start span trace", "traceId", span.SpanContext().TraceID().String())
		}

		next.RunFunc(ctx, tgUpdate, c, msgModel)
	}
}
