package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	strutil "casbinder/pkg/platform/strings"
)

// DefaultUsernameTriesLimit bounds username allocation when USERNAME_TRIES_LIMIT is unset.
const DefaultUsernameTriesLimit = 1000

// Server captures process level configuration.
type Server struct {
	Addr        string
	DatabaseURL string
	// TxTimeout bounds each database unit of work that has no deadline.
	TxTimeout time.Duration
	LogLevel    string
	LogFormat   string

	AdminJWTSecret string

	CAS      CASConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Provider ProviderConfig
}

// CASConfig controls the identity provider and the binding policy.
type CASConfig struct {
	ServerURL          string
	ProtocolVersion    int
	CreateUser         bool
	SyncAttributes     []string
	UsernameTriesLimit int
}

// RedisConfig configures the optional claims cache backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional post-authentication event publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ProviderConfig holds timeouts and caching for outbound provider calls.
type ProviderConfig struct {
	Timeout        time.Duration
	ClaimsCacheTTL time.Duration
}

// LoadDotEnv loads the given env files when present. Existing variables win.
func LoadDotEnv(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:           getEnv("BINDER_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		TxTimeout:      getDuration("DATABASE_TX_TIMEOUT", 5*time.Second),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
		CAS: CASConfig{
			ServerURL:          withTrailingSlash(os.Getenv("CAS_SERVER_URL")),
			ProtocolVersion:    getInt("CAS_PROTOCOL_VERSION", 3),
			CreateUser:         getBool("CAS_CREATE_USER", true),
			SyncAttributes:     strutil.SplitList(getEnv("CAS_SYNC_ATTRIBUTES", "email,first_name,last_name")),
			UsernameTriesLimit: getInt("USERNAME_TRIES_LIMIT", DefaultUsernameTriesLimit),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: strutil.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "casbinder.authenticated"),
		},
		Provider: ProviderConfig{
			Timeout:        getDuration("PROVIDER_TIMEOUT", 10*time.Second),
			ClaimsCacheTTL: getDuration("OIDC_CLAIMS_CACHE_TTL", 0),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func withTrailingSlash(u string) string {
	if u == "" || strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
