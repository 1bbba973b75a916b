package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig - корневая структура конфигурации.
// Она зеркалит структуру config.yaml.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Catalog CatalogConfig `yaml:"catalog"`
	Cache   CacheConfig   `yaml:"cache"`
	S3      S3Config      `yaml:"s3"`
	Prompt  PromptConfig  `yaml:"prompt"`
	Chat    ChatConfig    `yaml:"chat"`
	Models  ModelsConfig  `yaml:"models"`
	App     AppSpecific   `yaml:"app"`
}

// ServerConfig - настройки HTTP сервера.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`                // Например ":8080"
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"` // "10s"
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`    // Сколько ждём активные стримы при остановке
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *ServerConfig) GetDefaults() ServerConfig {
	result := *c

	if result.Addr == "" {
		result.Addr = ":8080"
	}
	if result.ReadHeaderTimeout == 0 {
		result.ReadHeaderTimeout = 10 * time.Second
	}
	if result.ShutdownTimeout == 0 {
		result.ShutdownTimeout = 15 * time.Second
	}

	return result
}

// Источники каталога.
const (
	SourceHTTP = "http"
	SourceS3   = "s3"
)

// CatalogConfig - откуда и как часто берём каталог товаров.
type CatalogConfig struct {
	Source     string        `yaml:"source"`      // "http" (default) или "s3"
	URL        string        `yaml:"url"`         // JSON документ вида {"product": [...]}
	UserAgent  string        `yaml:"user_agent"`  // Некоторые хостинги режут запросы без UA
	Timeout    time.Duration `yaml:"timeout"`     // Таймаут одной загрузки
	CacheTTL   time.Duration `yaml:"cache_ttl"`   // Время жизни записи в кэше
	RateLimit  int           `yaml:"rate_limit"`  // Исходящих запросов в минуту
	BurstLimit int           `yaml:"burst_limit"` // Burst для rate limiter
	S3Key      string        `yaml:"s3_key"`      // Ключ объекта при source: s3
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *CatalogConfig) GetDefaults() CatalogConfig {
	result := *c

	if result.Source == "" {
		result.Source = SourceHTTP
	}
	if result.URL == "" {
		result.URL = "https://plus62store.github.io/products.json"
	}
	if result.UserAgent == "" {
		result.UserAgent = "Mozilla/5.0 (compatible; shopchat)"
	}
	if result.Timeout == 0 {
		result.Timeout = 10 * time.Second
	}
	if result.CacheTTL == 0 {
		result.CacheTTL = time.Hour
	}
	if result.RateLimit == 0 {
		result.RateLimit = 60 // запросов в минуту
	}
	if result.BurstLimit == 0 {
		result.BurstLimit = 5
	}
	if result.S3Key == "" {
		result.S3Key = "products.json"
	}

	return result
}

// Драйверы кэша.
const (
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
)

// CacheConfig - key/value хранилище с TTL для каталога.
type CacheConfig struct {
	Driver string `yaml:"driver"` // "sqlite" (default) или "memory"
	Path   string `yaml:"path"`   // Файл базы для sqlite
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *CacheConfig) GetDefaults() CacheConfig {
	result := *c

	if result.Driver == "" {
		result.Driver = CacheSQLite
	}
	if result.Path == "" {
		result.Path = "shopchat-cache.db"
	}

	return result
}

// S3Config - настройки объектного хранилища.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
}

// PromptConfig - параметры системного промпта.
type PromptConfig struct {
	StoreDescription string `yaml:"store_description"` // "an online store in Indonesia"
	Currency         string `yaml:"currency"`          // Префикс цены, например "Rp"
}

// ChatConfig - параметры чат-прокси.
type ChatConfig struct {
	OpenTimeout time.Duration `yaml:"open_timeout"` // Сколько ждём начала ответа от модели
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *ChatConfig) GetDefaults() ChatConfig {
	result := *c

	if result.OpenTimeout == 0 {
		result.OpenTimeout = 30 * time.Second
	}

	return result
}

// ModelsConfig - настройки AI моделей.
type ModelsConfig struct {
	DefaultChat string              `yaml:"default_chat"` // Алиас для чата по умолчанию
	Definitions map[string]ModelDef `yaml:"definitions"`  // Словарь определений моделей
}

// ModelDef - параметры конкретной модели.
type ModelDef struct {
	Provider    string        `yaml:"provider"`   // "workers-ai", "openai", "zai" и т.д.
	ModelName   string        `yaml:"model_name"` // Реальное имя в API
	APIKey      string        `yaml:"api_key"`    // Поддерживает ${VAR}
	BaseURL     string        `yaml:"base_url"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"` // Ограничение на весь стрим, 0 - без ограничения
}

// AppSpecific - общие настройки приложения.
type AppSpecific struct {
	Debug   bool   `yaml:"debug"`
	LogFile string `yaml:"log_file"` // Пусто - пишем в stderr
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
//
// Незаполненные секции получают значения по умолчанию.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(rawBytes)
}

// Parse разбирает содержимое config.yaml (с подстановкой ${VAR}).
func Parse(raw []byte) (*AppConfig, error) {
	// os.ExpandEnv заменяет ${VAR} или $VAR на значение из системы.
	contentWithEnv := os.ExpandEnv(string(raw))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	c.Server = c.Server.GetDefaults()
	c.Catalog = c.Catalog.GetDefaults()
	c.Cache = c.Cache.GetDefaults()
	c.Chat = c.Chat.GetDefaults()
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	switch c.Catalog.Source {
	case SourceHTTP:
	case SourceS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required for catalog.source=s3")
		}
		if c.S3.Endpoint == "" {
			return fmt.Errorf("s3.endpoint is required for catalog.source=s3")
		}
	default:
		return fmt.Errorf("unknown catalog.source '%s'", c.Catalog.Source)
	}

	switch c.Cache.Driver {
	case CacheMemory, CacheSQLite:
	default:
		return fmt.Errorf("unknown cache.driver '%s'", c.Cache.Driver)
	}

	if c.Models.DefaultChat == "" {
		return fmt.Errorf("models.default_chat is required")
	}
	if _, ok := c.Models.Definitions[c.Models.DefaultChat]; !ok {
		return fmt.Errorf("default_chat model '%s' is not defined in definitions", c.Models.DefaultChat)
	}
	return nil
}

// GetChatModel возвращает конфигурацию модели по умолчанию или по имени.
func (c *AppConfig) GetChatModel(name string) (ModelDef, bool) {
	if name == "" {
		name = c.Models.DefaultChat
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}
