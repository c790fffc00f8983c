package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Config holds settings for the AWS S3 backend.
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the AWS endpoint, e.g. for LocalStack.
	Endpoint     string
	UsePathStyle bool
}

// StorageConfig selects and configures the object store.
type StorageConfig struct {
	Driver string `validate:"oneof=minio s3"`
	MinIO  MinIOConfig
	S3     S3Config
}

// AuthConfig holds session token and password hashing settings.
type AuthConfig struct {
	JWTSecret      string        `validate:"required,min=32"`
	JWTAlgorithm   string        `validate:"oneof=HS256 HS384 HS512"`
	AccessTokenTTL time.Duration `validate:"gt=0"`
	BcryptCost     int           `validate:"min=4,max=31"`
}

// FilesConfig holds limits applied by the file ledger.
type FilesConfig struct {
	MaxUploadBytes int64         `validate:"gt=0"`
	DownloadURLTTL time.Duration `validate:"gt=0"`
	MaxPageSize    int           `validate:"gt=0"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Env      string
	LogLevel string `validate:"oneof=debug info warn error"`
	Port     string `validate:"required,numeric"`
	Database DatabaseConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Files    FilesConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() *AppConfig {
	return &AppConfig{
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "minio"),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			S3: S3Config{
				Bucket:          getEnv("S3_BUCKET_NAME", ""),
				Region:          getEnv("AWS_REGION", "us-east-1"),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				Endpoint:        getEnv("AWS_ENDPOINT_URL", ""),
				UsePathStyle:    getEnvBool("AWS_S3_USE_PATH_STYLE", false),
			},
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			JWTAlgorithm:   getEnv("JWT_ALGORITHM", "HS256"),
			AccessTokenTTL: time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
			BcryptCost:     getEnvInt("BCRYPT_COST", 10),
		},
		Files: FilesConfig{
			MaxUploadBytes: int64(getEnvInt("MAX_FILE_SIZE_MB", 50)) * 1024 * 1024,
			DownloadURLTTL: time.Duration(getEnvInt("DOWNLOAD_URL_TTL_SEC", 3600)) * time.Second,
			MaxPageSize:    getEnvInt("MAX_PAGE_SIZE", 200),
		},
	}
}

// IsProduction reports whether the app runs with production defaults.
func (c *AppConfig) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Validate checks the configuration. A failure here should stop the process.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
