package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type RESTConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

type DatabaseConfig struct {
	URL string
}

// SupabaseConfig - доступ к API аутентификации и хранилища
type SupabaseConfig struct {
	URL     string
	AnonKey string
	// JWTSecret - если задан, access token проверяется локально без запроса к провайдеру
	JWTSecret         string
	RoomImagesBucket  string
	RoomImageMaxBytes int64
	RequestTimeout    time.Duration
}

type ListingsConfig struct {
	PageSize          int
	SessionTTL        time.Duration
	SessionJanitorTTL time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type RabbitMQConfig struct {
	Enabled bool
	URL     string
}

type StdoutLogConfig struct {
	Level  string
	IsJSON bool
}

type FluentBitConfig struct {
	Enabled bool
	Host    string
	Port    int
	Level   string
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Rest         RESTConfig
	Database     DatabaseConfig
	Supabase     SupabaseConfig
	Listings     ListingsConfig
	Redis        RedisConfig
	RabbitMQ     RabbitMQConfig
	StdoutLogger StdoutLogConfig
	FluentBit    FluentBitConfig
}

// LoadConfig загружает конфигурацию из .env (если он есть) и переменных окружения
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		// в контейнере .env обычно нет, переменные приходят из окружения
		log.Printf("Info: Could not load .env file (path: %v): %v. Using environment only.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "listing-service")

	cfg.Rest.Port = getEnvAsString("REST_PORT", "8080")
	cfg.Rest.CORSAllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg.Supabase.URL = strings.TrimRight(os.Getenv("SUPABASE_URL"), "/")
	if cfg.Supabase.URL == "" {
		return nil, fmt.Errorf("SUPABASE_URL environment variable is required")
	}
	cfg.Supabase.AnonKey = os.Getenv("SUPABASE_ANON_KEY")
	if cfg.Supabase.AnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_ANON_KEY environment variable is required")
	}
	cfg.Supabase.JWTSecret = os.Getenv("SUPABASE_JWT_SECRET")
	cfg.Supabase.RoomImagesBucket = getEnvAsString("ROOM_IMAGES_BUCKET", "room-images")
	cfg.Supabase.RoomImageMaxBytes = int64(getEnvAsInt("ROOM_IMAGE_MAX_BYTES", 5<<20))
	cfg.Supabase.RequestTimeout = getEnvAsDuration("SUPABASE_REQUEST_TIMEOUT", 10*time.Second)

	cfg.Listings.PageSize = getEnvAsInt("LISTING_PAGE_SIZE", 5)
	if cfg.Listings.PageSize <= 0 {
		return nil, fmt.Errorf("LISTING_PAGE_SIZE must be positive, got %d", cfg.Listings.PageSize)
	}
	cfg.Listings.SessionTTL = getEnvAsDuration("BROWSE_SESSION_TTL", 30*time.Minute)
	cfg.Listings.SessionJanitorTTL = getEnvAsDuration("BROWSE_SESSION_JANITOR_INTERVAL", time.Minute)

	cfg.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", false)
	if cfg.Redis.Enabled {
		cfg.Redis.Addr = getEnvAsString("REDIS_ADDR", "localhost:6379")
		cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
		cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)
		cfg.Redis.CacheTTL = getEnvAsDuration("LISTING_CACHE_TTL", 5*time.Minute)
	}

	cfg.RabbitMQ.Enabled = getEnvAsBool("RABBITMQ_ENABLED", false)
	if cfg.RabbitMQ.Enabled {
		cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
		if cfg.RabbitMQ.URL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL environment variable is required when RABBITMQ_ENABLED is true")
		}
	}

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")
	cfg.StdoutLogger.IsJSON = getEnvAsBool("STDOUT_LOG_JSON", false)

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valDuration, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as duration: %v. Using default value: %s\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valDuration
}

// getEnvAsList читает список через запятую
func getEnvAsList(key string, defaultValue []string) []string {
	valStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valStr) == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
