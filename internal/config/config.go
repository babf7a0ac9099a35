package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path          string `mapstructure:"path"`
	LogMode       bool   `mapstructure:"log_mode"`
	MaxOpenConns  int    `mapstructure:"max_open_conns"`
	BusyTimeoutMS int    `mapstructure:"busy_timeout_ms"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SecurityConfig struct {
	BcryptCost    int    `mapstructure:"bcrypt_cost"`
	EncryptionKey string `mapstructure:"encryption_key"`
	// login attempts per minute per client IP
	LoginRatePerMinute int `mapstructure:"login_rate_per_minute"`
	LoginBurst         int `mapstructure:"login_burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json / text
}

type BackupConfig struct {
	Dir string `mapstructure:"dir"`
}

// LedgerConfig selects how edits and deletes repair the cashbox chain.
type LedgerConfig struct {
	Strategy string `mapstructure:"strategy"` // recompute / latest-only
}

type SeedConfig struct {
	File string `mapstructure:"file"`
}

type AppSubConfig struct {
	PageSize int `mapstructure:"page_size"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Seed     SeedConfig     `mapstructure:"seed"`
	App      AppSubConfig   `mapstructure:"app"`
}

var (
	appConfig *Config
	once      sync.Once
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.path", "data/exchange.db")
	v.SetDefault("database.log_mode", false)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.busy_timeout_ms", 5000)
	// every key needs a default so AutomaticEnv can override it
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "exchange-backoffice")
	v.SetDefault("jwt.expire_hours", 12)
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.encryption_key", "")
	v.SetDefault("security.login_rate_per_minute", 10)
	v.SetDefault("security.login_burst", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("backup.dir", "data/backups")
	v.SetDefault("ledger.strategy", "recompute")
	v.SetDefault("seed.file", "seed.yaml")
	v.SetDefault("app.page_size", 50)
}

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it looks for "config.yaml" in the current working
// directory; a missing file then falls back to defaults and environment.
// A ".env" file next to the binary is loaded into the environment first.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		var c *Config
		c, err = Read(path)
		if err == nil {
			appConfig = c
		}
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

// Read builds a fresh Config without touching the process-wide one.
func Read(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. EXB_SERVER_PORT=9000
	v.SetEnvPrefix("EXB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.Ledger.Strategy {
	case "recompute", "latest-only":
	default:
		return fmt.Errorf("ledger.strategy must be recompute or latest-only, got %q", c.Ledger.Strategy)
	}
	return nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
