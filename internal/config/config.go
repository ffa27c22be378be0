// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for our application
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Security SecurityConfig
	Store    StoreConfig
	Email    EmailConfig
	Kafka    KafkaConfig
	Media    MediaConfig
	PDF      PDFConfig
	Seed     SeedConfig
	Logging  LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
	FrontendURL string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	LogQueries   bool
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	PoolSize       int
	MinIdleConns   int
	ConnectRetries int
}

// JWTConfig contains JWT token configuration
type JWTConfig struct {
	Secret               string
	AccessTokenExpiry    time.Duration
	RefreshTokenExpiry   time.Duration
	RefreshTokenRotation bool
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	BcryptCost         int
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	TrustedProxies     []string
	CookieSecure       bool
}

// StoreConfig contains storefront business settings
type StoreConfig struct {
	ShippingFee           decimal.Decimal
	Currency              string
	GuestCartTTL          time.Duration
	ProfileCacheTTL       time.Duration
	PrincipalCacheTTL     time.Duration
	IdempotencyTTL        time.Duration
	IdempotencyPendingTTL time.Duration
	EmailConfirmationTTL  time.Duration
	PasswordResetTTL      time.Duration
}

// EmailConfig contains email delivery configuration
type EmailConfig struct {
	Provider  string // smtp or log
	FromEmail string
	FromName  string
	ReplyTo   string
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	SMTPTLS   bool
}

// KafkaConfig contains order event publishing configuration
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	ClientID     string
	WriteTimeout time.Duration
}

// MediaConfig contains avatar storage configuration
type MediaConfig struct {
	CloudinaryURL string
	Folder        string
	MaxSize       int64
	AllowedTypes  []string
}

// PDFConfig contains receipt rendering configuration
type PDFConfig struct {
	WkhtmltopdfPath string
	CompanyName     string
	CompanyAddress  string
	CompanyPhone    string
	CompanyEmail    string
}

// SeedConfig controls the development data loaded at startup
type SeedConfig struct {
	Enabled       bool
	AdminEmail    string
	AdminPassword string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	shippingFee, err := getEnvAsDecimal("SHIPPING_FEE", decimal.NewFromInt(50))
	if err != nil {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Cafe Storefront"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Server: ServerConfig{
			Port:           getEnv("APP_PORT", "8080"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			MaxBodyBytes:   getEnvAsInt64("SERVER_MAX_BODY_BYTES", 10<<20),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "cafe_storefront"),
			User:         getEnv("DB_USER", "cafe_user"),
			Password:     getEnv("DB_PASSWORD", "cafe_password"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
			LogQueries:   getEnvAsBool("DB_LOG_QUERIES", false),
		},
		Redis: RedisConfig{
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvAsInt("REDIS_DB", 0),
			PoolSize:       getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:   getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			ConnectRetries: getEnvAsInt("REDIS_CONNECT_RETRIES", 5),
		},
		JWT: JWTConfig{
			Secret:               getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-in-production"),
			AccessTokenExpiry:    getEnvAsDuration("JWT_ACCESS_EXPIRE", 1*time.Hour),
			RefreshTokenExpiry:   getEnvAsDuration("JWT_REFRESH_EXPIRE", 7*24*time.Hour),
			RefreshTokenRotation: getEnvAsBool("JWT_REFRESH_ROTATION", true),
		},
		Security: SecurityConfig{
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Request-ID"}),
			TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
			CookieSecure:       getEnvAsBool("COOKIE_SECURE", false),
		},
		Store: StoreConfig{
			ShippingFee:           shippingFee,
			Currency:              getEnv("STORE_CURRENCY", "PHP"),
			GuestCartTTL:          getEnvAsDuration("GUEST_CART_TTL", 24*time.Hour),
			ProfileCacheTTL:       getEnvAsDuration("PROFILE_CACHE_TTL", time.Hour),
			PrincipalCacheTTL:     getEnvAsDuration("PRINCIPAL_CACHE_TTL", 5*time.Minute),
			IdempotencyTTL:        getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
			IdempotencyPendingTTL: getEnvAsDuration("IDEMPOTENCY_PENDING_TTL", 2*time.Minute),
			EmailConfirmationTTL:  getEnvAsDuration("EMAIL_CONFIRMATION_TTL", 24*time.Hour),
			PasswordResetTTL:      getEnvAsDuration("PASSWORD_RESET_TTL", time.Hour),
		},
		Email: EmailConfig{
			Provider:  getEnv("EMAIL_PROVIDER", "log"),
			FromEmail: getEnv("FROM_EMAIL", "noreply@example.com"),
			FromName:  getEnv("FROM_NAME", "Cafe Storefront"),
			ReplyTo:   getEnv("REPLY_TO_EMAIL", ""),
			SMTPHost:  getEnv("SMTP_HOST", ""),
			SMTPPort:  getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:  getEnv("SMTP_USER", ""),
			SMTPPass:  getEnv("SMTP_PASS", ""),
			SMTPTLS:   getEnvAsBool("SMTP_TLS", false),
		},
		Kafka: KafkaConfig{
			Brokers:      getEnvAsSlice("KAFKA_BROKERS", []string{}),
			Topic:        getEnv("KAFKA_ORDER_TOPIC", "storefront.orders"),
			ClientID:     getEnv("KAFKA_CLIENT_ID", "cafe-storefront"),
			WriteTimeout: getEnvAsDuration("KAFKA_WRITE_TIMEOUT", 5*time.Second),
		},
		Media: MediaConfig{
			CloudinaryURL: getEnv("CLOUDINARY_URL", ""),
			Folder:        getEnv("CLOUDINARY_FOLDER", "storefront/avatars"),
			MaxSize:       getEnvAsInt64("AVATAR_MAX_SIZE", 2<<20),
			AllowedTypes:  getEnvAsSlice("AVATAR_ALLOWED_TYPES", []string{"image/jpeg", "image/png", "image/webp"}),
		},
		PDF: PDFConfig{
			WkhtmltopdfPath: getEnv("WKHTMLTOPDF_PATH", ""),
			CompanyName:     getEnv("COMPANY_NAME", "Cafe Storefront"),
			CompanyAddress:  getEnv("COMPANY_ADDRESS", ""),
			CompanyPhone:    getEnv("COMPANY_PHONE", ""),
			CompanyEmail:    getEnv("COMPANY_EMAIL", ""),
		},
		Seed: SeedConfig{
			Enabled:       getEnvAsBool("SEED_DATA", true),
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	require := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	require(len(c.JWT.Secret) >= 32, "JWT_SECRET must be at least 32 characters long")
	require(c.Database.Host != "", "DB_HOST is required")
	require(c.Database.Name != "", "DB_NAME is required")
	require(c.Database.User != "", "DB_USER is required")
	require(c.Redis.Host != "", "REDIS_HOST is required")
	require(c.Server.Port != "", "APP_PORT is required")
	require(!c.Store.ShippingFee.IsNegative(), "SHIPPING_FEE cannot be negative")

	switch c.Email.Provider {
	case "smtp":
		require(c.Email.SMTPHost != "", "SMTP_HOST is required when EMAIL_PROVIDER=smtp")
	case "log":
	default:
		errs = append(errs, fmt.Errorf("unsupported EMAIL_PROVIDER: %s", c.Email.Provider))
	}

	return errors.Join(errs...)
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// KafkaEnabled reports whether order events should be published
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

// Environment helpers. Unset or unparsable values fall back to the default,
// except for money (see getEnvAsDecimal).

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAs[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := parse(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvAsInt(key string, defaultValue int) int {
	return getEnvAs(key, defaultValue, strconv.Atoi)
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	return getEnvAs(key, defaultValue, func(v string) (int64, error) {
		return strconv.ParseInt(v, 10, 64)
	})
}

func getEnvAsBool(key string, defaultValue bool) bool {
	return getEnvAs(key, defaultValue, strconv.ParseBool)
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	return getEnvAs(key, defaultValue, time.ParseDuration)
}

// getEnvAsDecimal fails loudly: a mistyped money value must not silently fall back
func getEnvAsDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal amount: %w", key, err)
	}
	return d, nil
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
