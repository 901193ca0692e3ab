// Package config loads lendingd settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jehnsen/coopledger/internal/infrastructure/redis"
	"github.com/jehnsen/coopledger/pkg/auth"
	pkgkafka "github.com/jehnsen/coopledger/pkg/kafka"
	"github.com/jehnsen/coopledger/pkg/observability"
	pgpkg "github.com/jehnsen/coopledger/pkg/postgres"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type KafkaConfig struct {
	pkgkafka.Config
	Enabled     bool
	LoanTopic   string
	MemberTopic string
}

type LendingConfig struct {
	DefaultPenaltyRate decimal.Decimal
	OutboxInterval     time.Duration
	OutboxBatchSize    int
	// SeedMembers are marked active at startup by the in-memory member
	// directory. Ignored with the postgres store.
	SeedMembers []string
}

type GRPCConfig struct {
	TLSCertFile string
	TLSKeyFile  string
	Reflection  bool
}

type TracingConfig struct {
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

type Config struct {
	ServiceName string
	Store       string
	GRPCPort    int
	HTTPPort    int
	GRPC        GRPCConfig
	DB          pgpkg.Config
	Kafka       KafkaConfig
	Redis       redis.Config
	JWT         auth.JWTConfig
	Lending     LendingConfig
	Log         observability.LogConfig
	Tracing     TracingConfig
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case StorePostgres:
		if c.DB.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store))
	}
	if c.JWT.Secret == "" && c.JWT.PublicKeyPEM == "" {
		errs = append(errs, errors.New("JWT_SECRET or JWT_PUBLIC_KEY_FILE is required"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when Kafka is enabled"))
	}
	if c.Lending.DefaultPenaltyRate.IsNegative() {
		errs = append(errs, errors.New("DEFAULT_PENALTY_RATE must not be negative"))
	}
	return errors.Join(errs...)
}

// Load reads the environment. Kafka is enabled when brokers are configured.
// The JWT public key is read from the file named by JWT_PUBLIC_KEY_FILE.
func Load() (Config, error) {
	brokers := getEnvList("KAFKA_BROKERS")
	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", "lendingd"),
		Store:       strings.ToLower(getEnv("STORE_BACKEND", StorePostgres)),
		GRPCPort:    getEnvInt("GRPC_PORT", 9087),
		HTTPPort:    getEnvInt("HTTP_PORT", 8087),
		GRPC: GRPCConfig{
			TLSCertFile: getEnv("GRPC_TLS_CERT_FILE", ""),
			TLSKeyFile:  getEnv("GRPC_TLS_KEY_FILE", ""),
			Reflection:  getEnvBool("GRPC_REFLECTION", false),
		},
		DB: pgpkg.Config{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "coop"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "coop_lending"),
			SSLMode:         getEnv("DB_SSLMODE", "require"),
			ApplicationName: "lendingd",
			MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 20)),
			MinConns:        int32(getEnvInt("DB_MIN_CONNS", 2)),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
		},
		Kafka: KafkaConfig{
			Config: pkgkafka.Config{
				Brokers:       brokers,
				ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "lendingd"),
				TLS:           getEnvBool("KAFKA_TLS", false),
				SASLEnabled:   getEnvBool("KAFKA_SASL_ENABLED", false),
				SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", "SCRAM-SHA-512"),
				SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
				SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
			},
			Enabled:     getEnvBool("KAFKA_ENABLED", len(brokers) > 0),
			LoanTopic:   getEnv("KAFKA_LOAN_TOPIC", "coop.lending.loans"),
			MemberTopic: getEnv("KAFKA_MEMBER_TOPIC", "coop.membership.members"),
		},
		Redis: redis.Config{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			Prefix:     getEnv("REDIS_IDEMPOTENCY_PREFIX", ""),
			PendingTTL: getEnvDuration("REDIS_PENDING_TTL", time.Minute),
			ResultTTL:  getEnvDuration("REDIS_RESULT_TTL", 24*time.Hour),
		},
		JWT: auth.JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Issuer: getEnv("JWT_ISSUER", "coop-identity"),
		},
		Lending: LendingConfig{
			OutboxInterval:  getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second),
			OutboxBatchSize: getEnvInt("OUTBOX_BATCH_SIZE", 100),
			SeedMembers:     getEnvList("SEED_MEMBERS"),
		},
		Log: observability.LogConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Format:  getEnv("LOG_FORMAT", "json"),
			Service: "lendingd",
		},
		Tracing: TracingConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: getEnvFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
		},
	}

	rate, err := decimal.NewFromString(getEnv("DEFAULT_PENALTY_RATE", "0.02"))
	if err != nil {
		return Config{}, fmt.Errorf("config: DEFAULT_PENALTY_RATE: %w", err)
	}
	cfg.Lending.DefaultPenaltyRate = rate

	if path := getEnv("JWT_PUBLIC_KEY_FILE", ""); path != "" {
		pem, err := auth.LoadKeyFromFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		cfg.JWT.PublicKeyPEM = string(pem)
	}

	return cfg, nil
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
