package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ServerAddr    string
	PublicBaseURL string // Base URL used when building file and streaming URLs

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Storage backend: "minio" or "local"
	StorageBackend string
	LocalStoreDir  string // Root directory of the local-disk store

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":8080"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // No hardcoded default for the password
		DBName:     getEnv("DB_NAME", "tipwave"),

		StorageBackend: getEnv("STORAGE_BACKEND", "minio"),
		LocalStoreDir:  getEnv("LOCAL_STORE_DIR", "uploads"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "tipwave"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPath:       getEnv("LOG_PATH", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
	}
}
