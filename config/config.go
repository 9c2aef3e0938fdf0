package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	HTTP         ServerConfig
	MySQL        MySQLConfig
	Log          LogConfig
	JWT          JWTConfig
	Lipia        LipiaConfig
	Subscription SubscriptionConfig
	Dispatcher   DispatcherConfig
	Jobs         JobsConfig
}

type AppConfig struct {
	ServiceName     string
	CallbackBaseURL string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type LipiaConfig struct {
	APIKey      string
	BaseURL     string
	HTTPTimeout time.Duration
}

type SubscriptionConfig struct {
	BasicWords     int64
	PremiumWords   int64
	BasicAmount    int64
	PremiumAmount  int64
	PaymentTimeout time.Duration
}

type DispatcherConfig struct {
	QueueSize    int
	DrainTimeout time.Duration
}

type JobsConfig struct {
	ExpirePendingInterval time.Duration
	BatchSize             int32
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName:     getEnv("APP_SERVICE_NAME", "wordpay-service"),
			CallbackBaseURL: getEnv("APP_CALLBACK_BASE_URL", ""),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			Secret: jwtSecret,
			TTL:    getMinutesEnv("JWT_TTL_MINUTES", 12*time.Hour),
		},
		Lipia: LipiaConfig{
			APIKey:      getEnv("LIPIA_API_KEY", ""),
			BaseURL:     getEnv("LIPIA_BASE_URL", "https://lipia-api.kreativelabske.com/api"),
			HTTPTimeout: getSecondsEnv("LIPIA_HTTP_TIMEOUT_SECONDS", 30*time.Second),
		},
		Subscription: SubscriptionConfig{
			BasicWords:     int64(getIntEnv("BASIC_SUBSCRIPTION_WORDS", 100)),
			PremiumWords:   int64(getIntEnv("PREMIUM_SUBSCRIPTION_WORDS", 1000)),
			BasicAmount:    int64(getIntEnv("BASIC_SUBSCRIPTION_AMOUNT", 20)),
			PremiumAmount:  int64(getIntEnv("PREMIUM_SUBSCRIPTION_AMOUNT", 50)),
			PaymentTimeout: getSecondsEnv("PAYMENT_TIMEOUT_SECONDS", 60*time.Second),
		},
		Dispatcher: DispatcherConfig{
			QueueSize:    getIntEnv("DISPATCHER_QUEUE_SIZE", 100),
			DrainTimeout: getSecondsEnv("DISPATCHER_DRAIN_TIMEOUT_SECONDS", 30*time.Second),
		},
		Jobs: JobsConfig{
			ExpirePendingInterval: getMinutesEnv("JOBS_EXPIRE_PENDING_INTERVAL_MINUTES", time.Minute),
			BatchSize:             int32(getIntEnv("JOBS_BATCH_SIZE", 100)),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
