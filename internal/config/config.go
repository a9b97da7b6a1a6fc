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
	Server ServerConfig
	DB     DBConfig
	Log    LogConfig
	Run    RunConfig
	Export ExportConfig
	S3     S3Config
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

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RunConfig holds default flattening-run settings. Individual runs may
// override any of them.
type RunConfig struct {
	Mode           string `mapstructure:"mode"`
	PrefetchWindow int    `mapstructure:"prefetch_window"`
	Placeholder    string `mapstructure:"placeholder"`
	Delimiter      string `mapstructure:"delimiter"`
	Header         bool   `mapstructure:"header"`
	BOM            bool   `mapstructure:"bom"`
	ProgressEvery  int    `mapstructure:"progress_every"`
}

// DelimiterRune resolves the configured delimiter. "tab" is accepted as a
// spelled-out alias; otherwise the first rune of the string is used.
func (r *RunConfig) DelimiterRune() rune {
	switch r.Delimiter {
	case "", ",":
		return ','
	case "tab", "\\t":
		return '\t'
	default:
		return []rune(r.Delimiter)[0]
	}
}

// ExportConfig holds schema settings for the server.
type ExportConfig struct {
	SchemaPath string `mapstructure:"schema_path"`
}

// S3Config holds AWS S3 settings for uploading finished exports.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// Load reads configuration from environment variables with the FLATFEED_
// prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FLATFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "flatfeed")
	v.SetDefault("db.password", "flatfeed_secret")
	v.SetDefault("db.name", "flatfeed_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Run defaults
	v.SetDefault("run.mode", "lenient")
	v.SetDefault("run.prefetch_window", 64)
	v.SetDefault("run.placeholder", "")
	v.SetDefault("run.delimiter", ",")
	v.SetDefault("run.header", true)
	v.SetDefault("run.bom", true)
	v.SetDefault("run.progress_every", 10000)

	// Export defaults
	v.SetDefault("export.schema_path", "schema.json")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":          "FLATFEED_SERVER_PORT",
		"server.read_timeout":  "FLATFEED_SERVER_READ_TIMEOUT",
		"server.write_timeout": "FLATFEED_SERVER_WRITE_TIMEOUT",
		"server.environment":   "FLATFEED_SERVER_ENVIRONMENT",
		"db.host":              "FLATFEED_DB_HOST",
		"db.port":              "FLATFEED_DB_PORT",
		"db.user":              "FLATFEED_DB_USER",
		"db.password":          "FLATFEED_DB_PASSWORD",
		"db.name":              "FLATFEED_DB_NAME",
		"db.sslmode":           "FLATFEED_DB_SSLMODE",
		"db.max_open":          "FLATFEED_DB_MAX_OPEN",
		"db.max_idle":          "FLATFEED_DB_MAX_IDLE",
		"log.level":            "FLATFEED_LOG_LEVEL",
		"log.format":           "FLATFEED_LOG_FORMAT",
		"run.mode":             "FLATFEED_RUN_MODE",
		"run.prefetch_window":  "FLATFEED_RUN_PREFETCH_WINDOW",
		"run.placeholder":      "FLATFEED_RUN_PLACEHOLDER",
		"run.delimiter":        "FLATFEED_RUN_DELIMITER",
		"run.header":           "FLATFEED_RUN_HEADER",
		"run.bom":              "FLATFEED_RUN_BOM",
		"run.progress_every":   "FLATFEED_RUN_PROGRESS_EVERY",
		"export.schema_path":   "FLATFEED_EXPORT_SCHEMA_PATH",
		"s3.region":            "FLATFEED_S3_REGION",
		"s3.bucket":            "FLATFEED_S3_BUCKET",
		"s3.endpoint":          "FLATFEED_S3_ENDPOINT",
		"s3.access_key":        "FLATFEED_S3_ACCESS_KEY",
		"s3.secret_key":        "FLATFEED_S3_SECRET_KEY",
		"s3.presign_expiry":    "FLATFEED_S3_PRESIGN_EXPIRY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if
	// FLATFEED_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FLATFEED_SERVER_PORT") == "" {
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
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Run = RunConfig{
		Mode:           v.GetString("run.mode"),
		PrefetchWindow: v.GetInt("run.prefetch_window"),
		Placeholder:    v.GetString("run.placeholder"),
		Delimiter:      v.GetString("run.delimiter"),
		Header:         v.GetBool("run.header"),
		BOM:            v.GetBool("run.bom"),
		ProgressEvery:  v.GetInt("run.progress_every"),
	}
	cfg.Export = ExportConfig{
		SchemaPath: v.GetString("export.schema_path"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}

	return cfg, nil
}
