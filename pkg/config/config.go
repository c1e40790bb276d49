package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	PostgresHost		string
	PostgresPort		string
	PostgresUser		string
	PostgresPassword	string
	PostgresDB		string
	OpenAIKey		string
	OpenAIModel		string
	ServerHost		string
	ServerPort		string
	JWTSigningKey		string
	AppSecretHash		string
	FreeTokenBudget		int
	ProTokenBudget		int
	MaxHistoryTurns		int
	FreeReplyTokens		int
	ProReplyTokens		int
	RequestTimeout		time.Duration
	DeviceTokenTTL		time.Duration
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Не найден файл .env")
	}

	return &Config{
		PostgresHost:		getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:		getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:		getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:	getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:		getEnv("POSTGRES_DB", "torquebackend"),
		OpenAIKey:		getEnv("OPENAI_KEY", ""),
		OpenAIModel:		getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		ServerHost:		getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:		getEnv("SERVER_PORT", "8080"),
		JWTSigningKey:		getEnv("JWT_SIGNING_KEY", "your-secret-signing-key"),
		AppSecretHash:		getEnv("APP_SECRET_HASH", ""),
		FreeTokenBudget:	getEnvInt("FREE_TOKEN_BUDGET", 1500),
		ProTokenBudget:		getEnvInt("PRO_TOKEN_BUDGET", 6000),
		MaxHistoryTurns:	getEnvInt("MAX_HISTORY_TURNS", 6),
		FreeReplyTokens:	getEnvInt("FREE_REPLY_TOKENS", 512),
		ProReplyTokens:		getEnvInt("PRO_REPLY_TOKENS", 1024),
		RequestTimeout:		time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		DeviceTokenTTL:		time.Duration(getEnvInt("DEVICE_TOKEN_TTL_HOURS", 720)) * time.Hour,
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.Warnf("Некорректное значение %s=%q, используется %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
