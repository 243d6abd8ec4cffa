package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application level configuration aggregated from env/config files/flags.
type Config struct {
	Database struct {
		Driver string
		Path   string
		DSN    string
	}
	Users struct {
		// DuplicateMode is parsed by the command that provisions users.
		DuplicateMode string
		BcryptCost    int
	}
	Log struct {
		Level string
	}
}

// New returns a viper instance with defaults and CRMUSER_* environment lookup.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CRMUSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/crm.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("users.duplicatemode", "prefix")
	v.SetDefault("users.bcryptcost", bcrypt.DefaultCost)
	v.SetDefault("log.level", "info")
	return v
}

// Load reads .env, the optional config file and the environment into a Config.
// An explicit configFile must exist; otherwise ./config.* is optional.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // optional file
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unsupported drivers, bcrypt costs and log levels.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("database path is required for sqlite")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("database dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Users.BcryptCost < bcrypt.MinCost || c.Users.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost %d out of range [%d, %d]", c.Users.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}
