package utils

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	DB      DatabaseConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Factory FactoryConfig
	Admin   AdminBootstrapConfig
}

// AppConfig.CORSOrigins lists the browser origins allowed to call the API;
// "*" allows any origin without credentials.
type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	CORSOrigins []string
}

// StorageConfig selects the backends. Driver is "postgres" or "memory";
// TokenLedger is "store" (same backend as Driver) or "redis".
type StorageConfig struct {
	Driver      string
	TokenLedger string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig signs session tokens. ExpiryHours of 0 issues tokens that stay
// valid until revoked.
type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type FactoryConfig struct {
	URL            string
	APIKey         string
	TimeoutSeconds int
}

// AdminBootstrapConfig seeds a platform admin at startup when Email is set.
type AdminBootstrapConfig struct {
	Name     string
	Email    string
	Password string
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	LedgerStore    = "store"
	LedgerRedis    = "redis"
)

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	v.SetDefault("APP_NAME", "pizza-service")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("TOKEN_LEDGER", LedgerStore)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_EXPIRY_HOURS", 0)
	v.SetDefault("FACTORY_TIMEOUT_SECONDS", 10)
	v.SetDefault("ADMIN_BOOTSTRAP_NAME", "admin")

	// .env is optional; the environment always wins.
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Port:        v.GetString("PORT"),
			Debug:       v.GetBool("DEBUG"),
			LogPath:     v.GetString("LOG_PATH"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(v.GetString("STORE_DRIVER")),
			TokenLedger: strings.ToLower(v.GetString("TOKEN_LEDGER")),
		},
		DB: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Factory: FactoryConfig{
			URL:            v.GetString("FACTORY_URL"),
			APIKey:         v.GetString("FACTORY_API_KEY"),
			TimeoutSeconds: v.GetInt("FACTORY_TIMEOUT_SECONDS"),
		},
		Admin: AdminBootstrapConfig{
			Name:     v.GetString("ADMIN_BOOTSTRAP_NAME"),
			Email:    v.GetString("ADMIN_BOOTSTRAP_EMAIL"),
			Password: v.GetString("ADMIN_BOOTSTRAP_PASSWORD"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return errors.New("STORE_DRIVER must be postgres or memory")
	}
	switch c.Storage.TokenLedger {
	case LedgerStore, LedgerRedis:
	default:
		return errors.New("TOKEN_LEDGER must be store or redis")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.ExpiryHours < 0 {
		return errors.New("JWT_EXPIRY_HOURS must not be negative")
	}
	if c.Factory.URL == "" {
		return errors.New("FACTORY_URL is required")
	}
	if c.Factory.TimeoutSeconds <= 0 {
		return errors.New("FACTORY_TIMEOUT_SECONDS must be positive")
	}
	if len(c.App.CORSOrigins) == 0 {
		return errors.New("CORS_ORIGINS must list at least one origin")
	}
	return nil
}

// splitList parses a comma separated setting, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
