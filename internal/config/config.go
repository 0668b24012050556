package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultProfilePic = "avatar.jpg"
)

type DB struct {
	DbHOST     string
	DbPORT     string
	DbUSER     string
	DbPASSWORD string
	DbNAME     string
	DbSSLMODE  string
}

type MinIO struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
	Region     string
}

type Log struct {
	Level  string
	Format string
}

type Config struct {
	ServerPort           int
	DB                   DB
	MinIO                MinIO
	Log                  Log
	JWTSecretKey         string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	GoogleClientID       string
	MaxUploadSize        int64
	CORSAllowedOrigins   []string
	AuthRateLimit        int
	MigrationsPath       string
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// parseDuration accepts Go durations ("90m", "2h") and whole days ("7d").
func parseDuration(value string, fallback time.Duration) time.Duration {
	if days, found := strings.CutSuffix(value, "d"); found {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			return time.Duration(n) * 24 * time.Hour
		}
		return fallback
	}

	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		return fallback
	}
	return duration
}

func parseMaxUploadSize(value string) int64 {
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil || size <= 0 {
		return 10 * 1024 * 1024
	}
	return size
}

func LoadDB() DB {
	return DB{
		DbHOST:     getEnv("DB_HOST", "localhost"),
		DbPORT:     getEnv("DB_PORT", "5432"),
		DbUSER:     getEnv("DB_USER", "postgres"),
		DbPASSWORD: getEnv("DB_PASSWORD", "password"),
		DbNAME:     getEnv("DB_NAME", "moviemeter"),
		DbSSLMODE:  getEnv("DB_SSLMODE", "disable"),
	}
}

func LoadMinIO() MinIO {
	return MinIO{
		Endpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		BucketName: getEnv("MINIO_BUCKET_NAME", "uploads"),
		UseSSL:     getEnvBool("MINIO_USE_SSL", false),
		Region:     getEnv("MINIO_REGION", "us-east-1"),
	}
}

func LoadLog() Log {
	return Log{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}
}

// LoadConfig reads .env (if present) and the process environment.
// The returned bool reports whether a .env file was loaded.
func LoadConfig() (*Config, bool) {
	envLoaded := godotenv.Load() == nil

	return &Config{
		ServerPort:           getEnvAsInt("SERVER_PORT", 5500),
		DB:                   LoadDB(),
		MinIO:                LoadMinIO(),
		Log:                  LoadLog(),
		JWTSecretKey:         getEnv("JWT_SECRET_KEY", ""),
		AccessTokenDuration:  parseDuration(getEnv("ACCESS_TOKEN_DURATION", "1h"), time.Hour),
		RefreshTokenDuration: parseDuration(getEnv("REFRESH_TOKEN_DURATION", "7d"), 7*24*time.Hour),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		MaxUploadSize:        parseMaxUploadSize(getEnv("MAX_UPLOAD_SIZE", "10485760")),
		CORSAllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AuthRateLimit:        getEnvAsInt("AUTH_RATE_LIMIT", 30),
		MigrationsPath:       getEnv("MIGRATIONS_PATH", "migrations/001_create_tables.sql"),
	}, envLoaded
}

// Validate reports the required settings that are missing.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is not set"))
	}
	if c.GoogleClientID == "" {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID is not set"))
	}
	return errors.Join(errs...)
}
