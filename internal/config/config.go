package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	JWT        JWTConfig
	Auth       AuthConfig
	S3         S3Config
	Log        LogConfig
	CORS       CORSConfig
	Buyer      BuyerConfig
	Engine     EngineConfig
	Quarantine QuarantineConfig
	Scan       ScanConfig
	Email      EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret       string        `mapstructure:"secret"`
	AccessExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer       string        `mapstructure:"issuer"`
}

// AuthConfig holds the single operator credential. The password hash is a
// bcrypt hash; an empty hash disables login entirely.
type AuthConfig struct {
	AdminUser         string `mapstructure:"admin_user"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

// S3Config holds AWS S3 settings for the accepted-invoice archive.
type S3Config struct {
	Enabled       bool   `mapstructure:"enabled"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// BuyerConfig holds the canonical buyer identity invoices are issued to.
type BuyerConfig struct {
	CompanyName string `mapstructure:"company_name"`
	TaxNumber   string `mapstructure:"tax_number"`
}

// EngineConfig holds recognition and quality thresholds.
type EngineConfig struct {
	MaxAttempts   int     `mapstructure:"max_attempts"`
	MinConfidence float64 `mapstructure:"min_confidence"`
	MinFilled     int     `mapstructure:"min_filled"`
}

// QuarantineConfig holds settings for unrecognized-file routing.
type QuarantineConfig struct {
	BaseDir       string `mapstructure:"base_dir"`
	ErrorLogPath  string `mapstructure:"error_log_path"`
	MaxLogEntries int    `mapstructure:"max_log_entries"`
}

// ScanConfig holds batch scanning settings.
type ScanConfig struct {
	InvoiceDirs []string `mapstructure:"invoice_dirs"`
	Concurrency int      `mapstructure:"concurrency"`
}

// EmailConfig holds review-report delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	Reviewer    string `mapstructure:"reviewer"`
}

// Load reads configuration from environment variables with the FAPIAO_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FAPIAO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "fapiao")
	v.SetDefault("db.password", "fapiao_secret")
	v.SetDefault("db.name", "fapiao_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "12h")
	v.SetDefault("jwt.issuer", "fapiao")

	// Auth defaults
	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("auth.admin_password_hash", "")

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "cn-north-1")
	v.SetDefault("s3.bucket", "fapiao-archive")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Buyer defaults: the company these invoices are issued to.
	v.SetDefault("buyer.company_name", "宁波牧柏科技咨询有限公司")
	v.SetDefault("buyer.tax_number", "91330225MA2J4X2M2B")

	// Engine defaults
	v.SetDefault("engine.max_attempts", 3)
	v.SetDefault("engine.min_confidence", 0.6)
	v.SetDefault("engine.min_filled", 4)

	// Quarantine defaults
	v.SetDefault("quarantine.base_dir", "unrecognized")
	v.SetDefault("quarantine.error_log_path", "unrecognized/error_log.json")
	v.SetDefault("quarantine.max_log_entries", 1000)

	// Scan defaults
	v.SetDefault("scan.invoice_dirs", "invoices,invoices_img")
	v.SetDefault("scan.concurrency", 4)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "cn-north-1")
	v.SetDefault("email.from_address", "noreply@example.com")
	v.SetDefault("email.from_name", "发票识别系统")
	v.SetDefault("email.reviewer", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "FAPIAO_SERVER_PORT",
		"server.read_timeout":        "FAPIAO_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "FAPIAO_SERVER_WRITE_TIMEOUT",
		"server.environment":         "FAPIAO_SERVER_ENVIRONMENT",
		"db.host":                    "FAPIAO_DB_HOST",
		"db.port":                    "FAPIAO_DB_PORT",
		"db.user":                    "FAPIAO_DB_USER",
		"db.password":                "FAPIAO_DB_PASSWORD",
		"db.name":                    "FAPIAO_DB_NAME",
		"db.sslmode":                 "FAPIAO_DB_SSLMODE",
		"db.max_open":                "FAPIAO_DB_MAX_OPEN",
		"db.max_idle":                "FAPIAO_DB_MAX_IDLE",
		"jwt.secret":                 "FAPIAO_JWT_SECRET",
		"jwt.access_expiry":          "FAPIAO_JWT_ACCESS_EXPIRY",
		"jwt.issuer":                 "FAPIAO_JWT_ISSUER",
		"auth.admin_user":            "FAPIAO_AUTH_ADMIN_USER",
		"auth.admin_password_hash":   "FAPIAO_AUTH_ADMIN_PASSWORD_HASH",
		"s3.enabled":                 "FAPIAO_S3_ENABLED",
		"s3.region":                  "FAPIAO_S3_REGION",
		"s3.bucket":                  "FAPIAO_S3_BUCKET",
		"s3.endpoint":                "FAPIAO_S3_ENDPOINT",
		"s3.access_key":              "FAPIAO_S3_ACCESS_KEY",
		"s3.secret_key":              "FAPIAO_S3_SECRET_KEY",
		"s3.max_file_size_mb":        "FAPIAO_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":          "FAPIAO_S3_PRESIGN_EXPIRY",
		"log.level":                  "FAPIAO_LOG_LEVEL",
		"log.format":                 "FAPIAO_LOG_FORMAT",
		"cors.allowed_origins":       "FAPIAO_CORS_ALLOWED_ORIGINS",
		"buyer.company_name":         "FAPIAO_BUYER_COMPANY_NAME",
		"buyer.tax_number":           "FAPIAO_BUYER_TAX_NUMBER",
		"engine.max_attempts":        "FAPIAO_ENGINE_MAX_ATTEMPTS",
		"engine.min_confidence":      "FAPIAO_ENGINE_MIN_CONFIDENCE",
		"engine.min_filled":          "FAPIAO_ENGINE_MIN_FILLED",
		"quarantine.base_dir":        "FAPIAO_QUARANTINE_BASE_DIR",
		"quarantine.error_log_path":  "FAPIAO_QUARANTINE_ERROR_LOG_PATH",
		"quarantine.max_log_entries": "FAPIAO_QUARANTINE_MAX_LOG_ENTRIES",
		"scan.invoice_dirs":          "FAPIAO_SCAN_INVOICE_DIRS",
		"scan.concurrency":           "FAPIAO_SCAN_CONCURRENCY",
		"email.provider":             "FAPIAO_EMAIL_PROVIDER",
		"email.region":               "FAPIAO_EMAIL_REGION",
		"email.from_address":         "FAPIAO_EMAIL_FROM_ADDRESS",
		"email.from_name":            "FAPIAO_EMAIL_FROM_NAME",
		"email.reviewer":             "FAPIAO_EMAIL_REVIEWER",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if FAPIAO_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FAPIAO_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:       v.GetString("jwt.secret"),
		AccessExpiry: v.GetDuration("jwt.access_expiry"),
		Issuer:       v.GetString("jwt.issuer"),
	}
	cfg.Auth = AuthConfig{
		AdminUser:         v.GetString("auth.admin_user"),
		AdminPasswordHash: v.GetString("auth.admin_password_hash"),
	}
	cfg.S3 = S3Config{
		Enabled:       v.GetBool("s3.enabled"),
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Buyer = BuyerConfig{
		CompanyName: v.GetString("buyer.company_name"),
		TaxNumber:   v.GetString("buyer.tax_number"),
	}
	cfg.Engine = EngineConfig{
		MaxAttempts:   v.GetInt("engine.max_attempts"),
		MinConfidence: v.GetFloat64("engine.min_confidence"),
		MinFilled:     v.GetInt("engine.min_filled"),
	}
	cfg.Quarantine = QuarantineConfig{
		BaseDir:       v.GetString("quarantine.base_dir"),
		ErrorLogPath:  v.GetString("quarantine.error_log_path"),
		MaxLogEntries: v.GetInt("quarantine.max_log_entries"),
	}
	cfg.Scan = ScanConfig{
		InvoiceDirs: splitList(v.GetString("scan.invoice_dirs")),
		Concurrency: v.GetInt("scan.concurrency"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		Reviewer:    v.GetString("email.reviewer"),
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
