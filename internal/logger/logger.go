package logger

import (
	"fmt"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	level  = zap.NewAtomicLevelAt(zap.DebugLevel)
)

func init() {
	localLogger, err := build(nil)
	if err != nil {
		log.Fatalf("Error intializing logger: %v", err)
	}

	logger = localLogger
}

func build(extraOutputs []string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.OutputPaths = append(cfg.OutputPaths, extraOutputs...)
	return cfg.Build(zap.AddCallerSkip(1))
}

// Init Переключение уровня логирования и добавление выходов (например, файла журнала действий пользователей).
func Init(lvl string, extraOutputs ...string) error {
	if lvl != "" {
		parsed, err := zapcore.ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parse log level %q: %w", lvl, err)
		}
		level.SetLevel(parsed)
	}

	if len(extraOutputs) == 0 {
		return nil
	}

	localLogger, err := build(extraOutputs)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	_ = logger.Sync()
	logger = localLogger
	return nil
}

func Sync() {
	_ = logger.Sync()
}

func Fatal(msg string, keysAndValues ...any) {
	logger.Sugar().Fatalw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	logger.Sugar().Errorw(msg, keysAndValues...)
}

func Warning(msg string, keysAndValues ...any) {
	logger.Sugar().Warnw(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...any) {
	logger.Sugar().Infow(msg, keysAndValues...)
}

func Debug(msg string, keysAndValue ...any) {
	logger.Sugar().Debugw(msg, keysAndValue...)
}

func DebugZap(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}
