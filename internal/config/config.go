package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shoksin/expenseBot/internal/logger"
	"gopkg.in/yaml.v3"
)

const (
	configFile      = "data/config.yaml"
	defaultFileHost = "api.telegram.org"
)

type Config struct {
	Token              string `yaml:"token"`
	RatesAPIURL        string `yaml:"rates_api_url"`
	RatesAPIKey        string `yaml:"rates_api_key"`
	RatesAPITimeout    int64  `yaml:"rates_api_timeout"` // Таймаут запроса курса валют (в секундах).
	FileHost           string `yaml:"file_host"`         // Хост, с которого отдаются загруженные файлы.
	ConnectionStringDB string `yaml:"connection_string_db"`
	MetricsAddr        string `yaml:"metrics_addr"`
	TracingEndpoint    string `yaml:"tracing_endpoint"`
	ServiceName        string `yaml:"service_name"`
	LogLevel           string `yaml:"log_level"`
	LogFile            string `yaml:"log_file"`        // Журнал действий пользователей.
	UpdatesTimeout     int    `yaml:"updates_timeout"` // Таймаут long polling (в секундах).
	DisableMetrics     bool   `yaml:"disable_metrics"`
}

type Service struct {
	config Config
}

// envOverrides Переменные окружения, перекрывающие значения из файла.
var envOverrides = map[string]func(c *Config, v string){
	"TELEGRAM_TOKEN":       func(c *Config, v string) { c.Token = v },
	"RATES_API_URL":        func(c *Config, v string) { c.RatesAPIURL = v },
	"RATES_API_KEY":        func(c *Config, v string) { c.RatesAPIKey = v },
	"DB_CONNECTION_STRING": func(c *Config, v string) { c.ConnectionStringDB = v },
	"METRICS_ADDR":         func(c *Config, v string) { c.MetricsAddr = v },
	"TRACING_ENDPOINT":     func(c *Config, v string) { c.TracingEndpoint = v },
	"LOG_LEVEL":            func(c *Config, v string) { c.LogLevel = v },
}

func New() (*Service, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warning("Error load .env file", "err", err)
	}

	path := configFile
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		path = p
	}

	return Load(path)
}

// Load Чтение конфигурации из файла path. Отсутствующий файл не ошибка, если всё задано через окружение.
func Load(path string) (*Service, error) {
	s := &Service{}

	rawYAML, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("Config file not found, using environment", "path", path)
	case err != nil:
		logger.Error("Error read config file", "err", err)
		return nil, fmt.Errorf("reading config error: %w", err)
	default:
		if err = yaml.Unmarshal(rawYAML, &s.config); err != nil {
			logger.Error("Error to unmarshal config data", "err", err)
			return nil, fmt.Errorf("unmarhaling config error: %w", err)
		}
	}

	for key, set := range envOverrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			set(&s.config, v)
		}
	}
	if v := os.Getenv("RATES_API_TIMEOUT"); v != "" {
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RATES_API_TIMEOUT %q: %w", v, err)
		}
		s.config.RatesAPITimeout = secs
	}
	if v := os.Getenv("DISABLE_METRICS"); v != "" {
		disable, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DISABLE_METRICS %q: %w", v, err)
		}
		s.config.DisableMetrics = disable
	}

	s.setDefaults()

	if err := s.config.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) setDefaults() {
	if s.config.FileHost == "" {
		s.config.FileHost = defaultFileHost
	}
	if s.config.RatesAPITimeout <= 0 {
		s.config.RatesAPITimeout = 10
	}
	switch {
	case s.config.DisableMetrics:
		s.config.MetricsAddr = ""
	case s.config.MetricsAddr == "":
		s.config.MetricsAddr = ":8080"
	}
	if s.config.ServiceName == "" {
		s.config.ServiceName = "expense-bot"
	}
	if s.config.UpdatesTimeout <= 0 {
		s.config.UpdatesTimeout = 60
	}
}

func (c Config) validate() error {
	if c.Token == "" {
		return errors.New("config: token is required")
	}
	if c.RatesAPIURL == "" {
		return errors.New("config: rates_api_url is required")
	}
	return nil
}

func (s *Service) Token() string {
	return s.config.Token
}

func (s *Service) RatesTimeout() time.Duration {
	return time.Duration(s.config.RatesAPITimeout) * time.Second
}

func (s *Service) GetConfig() Config {
	return s.config
}
