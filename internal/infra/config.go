package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации платформы Instavibe.
// Одна структура на оба бинаря: web использует Server/Database/Ally,
// orchestrate — Server/Redis/Agent/Reliability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Agent       AgentConfig       `mapstructure:"agent"`
	Ally        AllyConfig        `mapstructure:"ally"`
	Reliability ReliabilityConfig `mapstructure:"reliability"`
	Logger      LoggerConfig      `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	MetricsPort  int           `mapstructure:"metrics_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PublicURL    string        `mapstructure:"public_url"`
}

// DatabaseConfig описывает подключение к PostgreSQL.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (сессии и Pub/Sub регистрации).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig содержит путь к RSA ключу для bearer-токенов оркестратора.
// Пустой публичный ключ выключает проверку (dev-режим).
type AuthConfig struct {
	PublicKeyPath string `mapstructure:"public_key_path"`
	PublicKey     []byte

	// Требовать X-API-Key на записывающих эндпоинтах web
	APIKeysEnabled bool `mapstructure:"api_keys_enabled"`
}

// AgentConfig — настройки HostAgent и его LLM-коллаборатора.
type AgentConfig struct {
	// Адреса удаленных агентов через запятую (как в docker-compose)
	RemoteAddresses string        `mapstructure:"remote_addresses"`
	Model           string        `mapstructure:"model"`
	OpenAIKey       string        `mapstructure:"openai_key"`
	OpenAIBaseURL   string        `mapstructure:"openai_base_url"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
	MaxToolRounds   int           `mapstructure:"max_tool_rounds"`
}

// RemoteAddressList разбирает список адресов, отбрасывая пустые элементы.
func (c AgentConfig) RemoteAddressList() []string {
	var out []string
	for _, a := range strings.Split(c.RemoteAddresses, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// AllyConfig — адрес оркестратора для фасада IntrovertAlly.
type AllyConfig struct {
	OrchestratorURL string        `mapstructure:"orchestrator_url"`
	StreamTimeout   time.Duration `mapstructure:"stream_timeout"`
}

// ReliabilityConfig — настройки Circuit Breaker и ретраев для A2A транспорта.
type ReliabilityConfig struct {
	CBMaxRequests  uint32        `mapstructure:"cb_max_requests"`
	CBInterval     time.Duration `mapstructure:"cb_interval"`
	CBTimeout      time.Duration `mapstructure:"cb_timeout"`
	Attempts       uint          `mapstructure:"attempts"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 2. ENV перекрывает файл: SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Дефолты
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// 6. Ключ из ENV (для Docker/K8s) или из файла по пути
	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("auth.api_keys_enabled", false)
	v.SetDefault("agent.model", "gpt-4o-mini")
	v.SetDefault("agent.call_timeout", 60*time.Second)
	v.SetDefault("agent.max_tool_rounds", 8)
	v.SetDefault("ally.orchestrator_url", "http://localhost:10000")
	v.SetDefault("ally.stream_timeout", 5*time.Minute)
	v.SetDefault("reliability.cb_max_requests", 3)
	v.SetDefault("reliability.cb_interval", 5*time.Second)
	v.SetDefault("reliability.cb_timeout", 30*time.Second)
	v.SetDefault("reliability.attempts", 3)
	v.SetDefault("reliability.attempt_timeout", 10*time.Second)
	v.SetDefault("reliability.rate_limit", 100)
	v.SetDefault("reliability.rate_burst", 20)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// loadKeyResource — универсальный хелпер: сначала ENV, потом файл
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
