package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/internal/commission"
)

// Config содержит конфигурацию сервиса
type Config struct {
	Port            int
	MaxPrincipal    float64
	MaxInstallments int
	// MaxRate - максимальная ставка в процентах за период
	MaxRate         float64
	OTELEndpoint    string
	OTELServiceName string
	LogLevel        string
	LogFormat       string
	// DatabaseURL - строка подключения к PostgreSQL; пустая строка включает хранилище в памяти
	DatabaseURL string

	ReconstructionBracketLow    float64
	ReconstructionBracketHigh   float64
	ReconstructionTolerance     float64
	ReconstructionMaxIterations int
	ReconstructionMateriality   float64
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	// Загружаем .env файл, если он существует (игнорируем ошибку)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvInt("PORT", 8000),
		MaxPrincipal:    getEnvFloat("MAX_PRINCIPAL", 1e9),
		MaxInstallments: getEnvInt("MAX_INSTALLMENTS", 600),
		MaxRate:         getEnvFloat("MAX_RATE", 100),
		OTELEndpoint:    getEnvString("OTEL_ENDPOINT", ""),
		OTELServiceName: getEnvString("OTEL_SERVICE_NAME", "loan-servicing"),
		LogLevel:        getEnvString("LOG_LEVEL", "INFO"),
		LogFormat:       getEnvString("LOG_FORMAT", "text"),
		DatabaseURL:     getEnvString("DATABASE_URL", ""),

		ReconstructionBracketLow:    getEnvFloat("RECONSTRUCTION_BRACKET_LOW", 0.6),
		ReconstructionBracketHigh:   getEnvFloat("RECONSTRUCTION_BRACKET_HIGH", 0.9),
		ReconstructionTolerance:     getEnvFloat("RECONSTRUCTION_TOLERANCE", 1),
		ReconstructionMaxIterations: getEnvInt("RECONSTRUCTION_MAX_ITERATIONS", 40),
		ReconstructionMateriality:   getEnvFloat("RECONSTRUCTION_MATERIALITY", 50),
	}

	if err := cfg.Reconstruction().Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Reconstruction возвращает параметры восстановления исходной суммы кредита
func (c *Config) Reconstruction() commission.ReconstructionConfig {
	return commission.ReconstructionConfig{
		BracketLow:           decimal.NewFromFloat(c.ReconstructionBracketLow),
		BracketHigh:          decimal.NewFromFloat(c.ReconstructionBracketHigh),
		Tolerance:            decimal.NewFromFloat(c.ReconstructionTolerance),
		MaxIterations:        c.ReconstructionMaxIterations,
		MaterialityThreshold: decimal.NewFromFloat(c.ReconstructionMateriality),
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
