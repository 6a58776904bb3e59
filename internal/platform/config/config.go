package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full process configuration, assembled from environment
// variables so main stays lean.
type Config struct {
	Server   Server
	Redis    RedisConfig
	Postgres PostgresConfig
	Captcha  CaptchaConfig
	FSSP     PortalConfig
	GIBDD    PortalConfig
	Passport PortalConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// RedisConfig holds connection settings for the shared cache.
// An empty URL means Redis is not configured and the in-memory
// cache is used instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig holds connection settings for the check-history store.
// An empty DSN disables history recording.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// CaptchaConfig configures the remote captcha solving provider.
type CaptchaConfig struct {
	Enabled     bool
	APIURL      string
	APIKey      string
	PollDelay   time.Duration
	SolveWindow time.Duration
}

// PortalConfig holds per-portal verification settings. Each external
// government portal (FSSP, GIBDD, passport registry) gets its own instance.
type PortalConfig struct {
	Enabled             bool
	ServiceURL          string
	Timeout             time.Duration
	RetryAttempts       int
	RetryBaseDelay      time.Duration
	CircuitThreshold    int
	CircuitResetTimeout time.Duration
	CacheTTL            time.Duration
}

// FromEnv builds the process configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          getString("GOVGATE_ADDR", ":8080"),
			JWTSigningKey: getString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:          os.Getenv("POSTGRES_DSN"),
			MaxOpenConns: getInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getInt("POSTGRES_MAX_IDLE_CONNS", 2),
		},
		Captcha: CaptchaConfig{
			Enabled:     getBool("CAPTCHA_ENABLED", false),
			APIURL:      getString("CAPTCHA_API_URL", "https://api.anti-captcha.com"),
			APIKey:      os.Getenv("CAPTCHA_API_KEY"),
			PollDelay:   getDuration("CAPTCHA_POLL_DELAY", 2*time.Second),
			SolveWindow: getDuration("CAPTCHA_SOLVE_WINDOW", 45*time.Second),
		},
		FSSP:     portalFromEnv("FSSP", "https://fssp.gov.ru/iss/ip"),
		GIBDD:    portalFromEnv("GIBDD", "https://gibdd.ru/check/fines"),
		Passport: portalFromEnv("PASSPORT", "https://services.fms.gov.ru/info-service.htm?sid=2000"),
	}
}

func portalFromEnv(prefix, defaultURL string) PortalConfig {
	return PortalConfig{
		Enabled:             getBool(prefix+"_ENABLED", false),
		ServiceURL:          getString(prefix+"_URL", defaultURL),
		Timeout:             getDuration(prefix+"_TIMEOUT", 30*time.Second),
		RetryAttempts:       getInt(prefix+"_RETRY_ATTEMPTS", 3),
		RetryBaseDelay:      getDuration(prefix+"_RETRY_BASE_DELAY", 2*time.Second),
		CircuitThreshold:    getInt(prefix+"_CIRCUIT_THRESHOLD", 5),
		CircuitResetTimeout: getDuration(prefix+"_CIRCUIT_RESET_TIMEOUT", 60*time.Second),
		CacheTTL:            getDuration(prefix+"_CACHE_TTL", 6*time.Hour),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "true" || v == "1"
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
