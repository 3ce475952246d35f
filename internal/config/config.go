package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"simledger/internal/common"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultSecretsPath is where Load looks for the TOML secrets file when no
// path is given.
const DefaultSecretsPath = "secrets.toml"

var ErrMissingDatabaseURL = errors.New("DATABASE_URL (or SUPABASE_URL) must be set in the environment or the secrets file")

// Config is the full runtime configuration
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Minio    MinioConfig
	Auth     AuthConfig
	Server   ServerConfig
}

// DatabaseConfig holds the Postgres connection settings
type DatabaseConfig struct {
	URL           string
	RunMigrations bool
}

// RedisConfig holds the cache and session store settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MinioConfig holds the report archive settings
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// AuthConfig selects token verification: JWKSURL when set, otherwise the HS256 secret
type AuthConfig struct {
	JWTSecret string
	JWKSURL   string
}

// ServerConfig holds HTTP and process settings
type ServerConfig struct {
	Port         int
	Timezone     string
	LogLevel     string
	DefaultActor string
}

// source resolves a key from the environment first, then the secrets file.
type source struct {
	secrets map[string]interface{}
}

func (s source) lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	for _, key := range keys {
		if v, ok := s.secrets[key]; ok {
			str := strings.TrimSpace(fmt.Sprint(v))
			if str != "" {
				return str, true
			}
		}
	}
	return "", false
}

func (s source) str(def string, keys ...string) string {
	if v, ok := s.lookup(keys...); ok {
		return v
	}
	return def
}

func (s source) integer(def int, keys ...string) (int, error) {
	v, ok := s.lookup(keys...)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", keys[0], err)
	}
	return n, nil
}

func (s source) boolean(def bool, keys ...string) (bool, error) {
	v, ok := s.lookup(keys...)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", keys[0], err)
	}
	return b, nil
}

// Load reads configuration from the environment, falling back to the TOML
// secrets file at secretsPath for every key. A missing secrets file is not an
// error; a missing database URL is.
func Load(secretsPath string) (*Config, error) {
	if secretsPath == "" {
		secretsPath = DefaultSecretsPath
	}

	src := source{secrets: map[string]interface{}{}}
	if _, err := toml.DecodeFile(secretsPath, &src.secrets); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load secrets file: %w", err)
	}

	dbURL, ok := src.lookup("DATABASE_URL", "SUPABASE_URL")
	if !ok {
		return nil, ErrMissingDatabaseURL
	}
	dbURL, err := withPassword(dbURL, src.str("", "DATABASE_KEY", "SUPABASE_KEY"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{URL: dbURL},
		Redis: RedisConfig{
			Addr:     src.str("localhost:6379", "REDIS_ADDR"),
			Password: src.str("", "REDIS_PASSWORD"),
		},
		Minio: MinioConfig{
			Endpoint:  src.str("localhost:9000", "MINIO_ENDPOINT"),
			AccessKey: src.str("minioadmin", "MINIO_ACCESS_KEY"),
			SecretKey: src.str("minioadmin", "MINIO_SECRET_KEY"),
			Bucket:    src.str("simledger-reports", "MINIO_BUCKET"),
			Region:    src.str("us-east-1", "MINIO_REGION"),
		},
		Auth: AuthConfig{
			JWTSecret: src.str("", "JWT_SECRET"),
			JWKSURL:   src.str("", "JWKS_URL"),
		},
		Server: ServerConfig{
			Timezone:     src.str(common.DefaultTimezone, "TIMEZONE"),
			LogLevel:     src.str("info", "LOG_LEVEL"),
			DefaultActor: src.str("", "DEFAULT_ACTOR"),
		},
	}

	if cfg.Database.RunMigrations, err = src.boolean(true, "RUN_MIGRATIONS"); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = src.integer(0, "REDIS_DB"); err != nil {
		return nil, err
	}
	if cfg.Minio.UseSSL, err = src.boolean(false, "MINIO_USE_SSL"); err != nil {
		return nil, err
	}
	if cfg.Server.Port, err = src.integer(8080, "PORT"); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" && cfg.Auth.JWKSURL == "" {
		return nil, errors.New("JWT_SECRET or JWKS_URL must be set")
	}

	return cfg, nil
}

// withPassword injects password into a postgres URL that carries none.
func withPassword(dsn, password string) (string, error) {
	if password == "" {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("DATABASE_URL must be a postgres URL when DATABASE_KEY is set")
	}
	if _, set := u.User.Password(); set {
		return dsn, nil
	}
	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, password)
	return u.String(), nil
}

// NewLogger builds the production zap logger at level ("debug", "info", ...).
func NewLogger(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
