package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port        int
		Host        string
		Environment string
	}
	Inference struct {
		Engine  string // moondream или openai
		Mode    string // simple или extended
		Timeout time.Duration
	}
	Moondream struct {
		BaseURL string
		APIKey  string
	}
	OpenAI struct {
		BaseURL string
		APIKey  string
		Model   string
	}
	Upload struct {
		MaxFileSize int64 // в байтах
	}
	RateLimit struct {
		Window      time.Duration
		MaxRequests int
	}
	Cameras struct {
		DataURL      string
		FetchTimeout time.Duration
		CacheTTL     time.Duration
	}
	Database struct {
		Enabled bool
	}
	Logging struct {
		Level string
	}
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() *Config {
	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("PORT", 8080)
	cfg.Server.Host = getEnv("HOST", "0.0.0.0")
	cfg.Server.Environment = getEnv("ENVIRONMENT", "development")

	// Конфигурация инференса
	cfg.Inference.Engine = getEnv("INFERENCE_ENGINE", "moondream")
	cfg.Inference.Mode = getEnv("DETECTION_MODE", "extended")
	cfg.Inference.Timeout = time.Duration(getEnvInt("INFERENCE_TIMEOUT_SECONDS", 30)) * time.Second

	cfg.Moondream.BaseURL = getEnv("MOONDREAM_BASE_URL", "https://api.moondream.ai/v1")
	cfg.Moondream.APIKey = getEnv("MOONDREAM_API_KEY", "")

	cfg.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", "")
	cfg.OpenAI.APIKey = getEnv("OPENAI_API_KEY", "")
	cfg.OpenAI.Model = getEnv("OPENAI_MODEL", "gpt-4o-mini")

	// Конфигурация загрузки файлов
	cfg.Upload.MaxFileSize = int64(getEnvInt("MAX_FILE_SIZE", 10485760)) // 10MB по умолчанию

	// Конфигурация rate limiting
	cfg.RateLimit.Window = time.Duration(getEnvInt("RATE_LIMIT_WINDOW_MS", 900000)) * time.Millisecond // 15 минут
	cfg.RateLimit.MaxRequests = getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100)

	// Конфигурация камер NYC DOT
	cfg.Cameras.DataURL = getEnv("CAMERA_DATA_URL", "https://webcams.nyctmc.org/api/cameras")
	cfg.Cameras.FetchTimeout = time.Duration(getEnvInt("CAMERA_FETCH_TIMEOUT_SECONDS", 5)) * time.Second
	cfg.Cameras.CacheTTL = time.Duration(getEnvInt("CAMERA_CACHE_TTL_SECONDS", 300)) * time.Second

	// Конфигурация базы данных (опциональное постоянное хранилище)
	cfg.Database.Enabled = getEnvBool("DB_ENABLED", false)

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	return cfg
}

// Validate проверяет обязательные параметры конфигурации.
// Сервис не стартует без API ключа выбранного движка инференса.
func (c *Config) Validate() error {
	switch c.Inference.Engine {
	case "moondream":
		if c.Moondream.APIKey == "" {
			return fmt.Errorf("MOONDREAM_API_KEY environment variable is required")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
	default:
		return fmt.Errorf("неизвестный движок инференса: %s (ожидается moondream или openai)", c.Inference.Engine)
	}

	if c.Inference.Mode != "simple" && c.Inference.Mode != "extended" {
		return fmt.Errorf("неизвестный режим детекции: %s (ожидается simple или extended)", c.Inference.Mode)
	}

	return nil
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool получает bool значение переменной окружения или возвращает значение по умолчанию
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
