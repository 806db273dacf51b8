package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"backoffice-service/internal/database"

	"go.uber.org/zap"
)

type Config struct {
	Port     string
	GRPCPort string
	DB       DB
	Redis    Redis

	KafkaBrokers []string
	KafkaTopic   string

	DefaultWarehouseCode string
	BaseCurrencyCode     string
	RetryAttempts        int
	ImportLockTTL        time.Duration
	AuditInterval        time.Duration
}

type DB struct {
	database.Config
}

// Redis пустой Addr отключает распределённую блокировку импорта.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

func (r Redis) Enabled() bool { return r.Addr != "" }

func Load(log *zap.Logger) *Config {
	return &Config{
		Port:     getEnv("APP_PORT", log),
		GRPCPort: envDefault("GRPC_PORT", ":9090"),
		DB: DB{
			Config: database.Config{
				Host:     getEnv("DB_HOST", log),
				Port:     getEnv("DB_PORT", log),
				User:     getEnv("DB_USER", log),
				Password: getEnv("DB_PASSWORD", log),
				Name:     getEnv("DB_NAME", log),
				SSLMode:  getEnv("DB_SSLMODE", log),
			},
		},
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       atoiDefault(os.Getenv("REDIS_DB"), 0),
		},
		KafkaBrokers: splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envDefault("KAFKA_TOPIC_ORDERS", "backoffice.orders"),

		DefaultWarehouseCode: os.Getenv("DEFAULT_WAREHOUSE_CODE"),
		BaseCurrencyCode:     os.Getenv("BASE_CURRENCY_CODE"),
		RetryAttempts:        atoiDefault(os.Getenv("RETRY_ATTEMPTS"), 3),
		ImportLockTTL:        durationDefault(os.Getenv("IMPORT_LOCK_TTL"), 2*time.Minute, log),
		AuditInterval:        durationDefault(os.Getenv("AUDIT_INTERVAL"), time.Hour, log),
	}
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func envDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// durationDefault: ноль или отрицательное значение отключает то, что
// настраивается (например, аудит журнала).
func durationDefault(s string, def time.Duration, log *zap.Logger) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warn("Некорректная длительность, используется значение по умолчанию", zap.String("value", s), zap.Duration("default", def))
		return def
	}
	return d
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		pt := strings.TrimSpace(p)
		if pt != "" {
			parts = append(parts, pt)
		}
	}
	return parts
}
