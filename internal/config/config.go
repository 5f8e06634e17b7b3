package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/devhub/devhub-api/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// CredentialBackend names the persistence used by the opaque token strategy.
type CredentialBackend string

const (
	CredentialBackendPostgres CredentialBackend = "postgres"
	CredentialBackendRedis    CredentialBackend = "redis"
)

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	RSAPublicKeyPEM      string
	RSAPrivateKeyPEM     string
	Strategy             domain.TokenStrategy
	Backend              CredentialBackend
	JWTSecret            string
	TokenTTLMinutes      int
	JWTTTLMinutes        int
	StoreTimeoutMillis   int
	SweepIntervalSeconds int
	Argon2Time           uint32
	Argon2MemoryKiB      uint32
	Argon2Threads        uint8
	DebugEndpoints       bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	publicPEM, err := loadPEM("RSA_PUBLIC_KEY")
	if err != nil {
		return nil, err
	}
	privatePEM, err := loadPEM("RSA_PRIVATE_KEY")
	if err != nil {
		return nil, err
	}

	strategy := domain.TokenStrategy(strings.ToLower(getEnv("AUTH_TOKEN_STRATEGY", string(domain.TokenStrategyOpaque))))
	switch strategy {
	case domain.TokenStrategyOpaque, domain.TokenStrategyJWT:
	default:
		return nil, fmt.Errorf("invalid AUTH_TOKEN_STRATEGY: %q", strategy)
	}

	backend := CredentialBackend(strings.ToLower(getEnv("AUTH_CREDENTIAL_BACKEND", string(CredentialBackendPostgres))))
	switch backend {
	case CredentialBackendPostgres, CredentialBackendRedis:
	default:
		return nil, fmt.Errorf("invalid AUTH_CREDENTIAL_BACKEND: %q", backend)
	}

	threads := getEnvAsInt("AUTH_ARGON2_THREADS", 4)
	if threads <= 0 || threads > 255 {
		return nil, fmt.Errorf("invalid AUTH_ARGON2_THREADS: %d", threads)
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "devhub-api"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            getEnv("POSTGRES_DSN", os.Getenv("DATABASE_URL")),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			RSAPublicKeyPEM:      publicPEM,
			RSAPrivateKeyPEM:     privatePEM,
			Strategy:             strategy,
			Backend:              backend,
			JWTSecret:            os.Getenv("AUTH_JWT_SECRET"),
			TokenTTLMinutes:      getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 24*60),
			JWTTTLMinutes:        getEnvAsInt("AUTH_JWT_TTL_MINUTES", 60),
			StoreTimeoutMillis:   getEnvAsInt("AUTH_STORE_TIMEOUT_MS", 3000),
			SweepIntervalSeconds: getEnvAsInt("AUTH_SWEEP_INTERVAL_SECONDS", 900),
			Argon2Time:           uint32(getEnvAsInt("AUTH_ARGON2_TIME", 1)),
			Argon2MemoryKiB:      uint32(getEnvAsInt("AUTH_ARGON2_MEMORY_KIB", 64*1024)),
			Argon2Threads:        uint8(threads),
			DebugEndpoints:       getEnvAsBool("AUTH_DEBUG_ENDPOINTS", false) && env != "production",
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// IsProduction reports whether the service runs in production.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// TokenTTL is the default lifetime of opaque credentials.
func (a AuthConfig) TokenTTL() time.Duration {
	return minutesOr(a.TokenTTLMinutes, 24*time.Hour)
}

// JWTTTL is the default lifetime of claim credentials.
func (a AuthConfig) JWTTTL() time.Duration {
	return minutesOr(a.JWTTTLMinutes, time.Hour)
}

// StoreTimeout bounds every credential store call.
func (a AuthConfig) StoreTimeout() time.Duration {
	if a.StoreTimeoutMillis <= 0 {
		return 3 * time.Second
	}
	return time.Duration(a.StoreTimeoutMillis) * time.Millisecond
}

// SweepInterval returns zero when periodic sweeping is disabled.
func (a AuthConfig) SweepInterval() time.Duration {
	if a.SweepIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(a.SweepIntervalSeconds) * time.Second
}

func minutesOr(minutes int, fallback time.Duration) time.Duration {
	if minutes <= 0 {
		return fallback
	}
	return time.Duration(minutes) * time.Minute
}

// loadPEM reads key material from KEY, falling back to the file named by KEY_FILE.
// Deployment platforms often flatten newlines to a literal "\n".
func loadPEM(key string) (string, error) {
	if val := os.Getenv(key); val != "" {
		return strings.ReplaceAll(val, `\n`, "\n"), nil
	}
	path := os.Getenv(key + "_FILE")
	if path == "" {
		return "", nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s_FILE: %w", key, err)
	}
	return string(content), nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
