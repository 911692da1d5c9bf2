package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	WriteBack    = "write-back"
	WriteThrough = "write-through"
)

type Config struct {
	ServerPort    int
	Database      DatabaseConfig
	DefaultPrefix string
	JWTSecret     string
	TokenTTL      time.Duration
	FlushInterval time.Duration
	WriteMode     string
	AdminLogins   []string
	DiscordToken  string
	RabbitMQ      RabbitMQConfig
	Log           LogConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type RabbitMQConfig struct {
	URL             string
	FlushQueue      string
	PrefetchCount   int
	QueueDurable    bool
	QueueAutoDelete bool
}

type LogConfig struct {
	Level string
	File  string
}

// WriteThrough reports whether created entities are persisted immediately.
func (c Config) WriteThrough() bool {
	return c.WriteMode == WriteThrough
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "dbh"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "dbh_db"),
		UseSSL:   getEnvBool("DB_SSL", false),
	}

	mqConfig := RabbitMQConfig{
		URL:             getEnv("RABBITMQ_URL", ""),
		FlushQueue:      getEnv("RABBITMQ_FLUSH_QUEUE", "dbh.flush"),
		PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 0),
		QueueDurable:    getEnvBool("RABBITMQ_DURABLE", true),
		QueueAutoDelete: getEnvBool("RABBITMQ_AUTO_DELETE", false),
	}

	writeMode := strings.ToLower(getEnv("WRITE_MODE", WriteBack))
	if writeMode != WriteThrough {
		writeMode = WriteBack
	}

	return Config{
		ServerPort:    getEnvInt("SERVER_PORT", 8080),
		Database:      dbConfig,
		DefaultPrefix: getEnv("DEFAULT_PREFIX", "!"),
		JWTSecret:     strings.TrimSpace(getEnv("JWT_SECRET", "")),
		TokenTTL:      getEnvDuration("TOKEN_TTL", 7*24*time.Hour),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 10*time.Minute),
		WriteMode:     writeMode,
		AdminLogins:   getEnvList("ADMIN_LOGINS"),
		DiscordToken:  getEnv("DISCORD_TOKEN", ""),
		RabbitMQ:      mqConfig,
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(valueStr)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := time.ParseDuration(strings.TrimSpace(valueStr))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvList(key string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return nil
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
