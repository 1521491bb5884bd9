package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Contracts ContractsConfig `yaml:"contracts"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port               int `yaml:"port"`
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Store drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type StoreConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxContracts int    `yaml:"max_contracts"`
}

// DefaultMaxReactivations applies when contracts.max_reactivations is unset
const DefaultMaxReactivations = 3

type ContractsConfig struct {
	MaxReactivations int    `yaml:"max_reactivations"`
	NumberPrefix     string `yaml:"number_prefix"`
	SeedFile         string `yaml:"seed_file"`
}

// PricingConfig holds the auction fee schedule. Amounts are decimal strings.
type PricingConfig struct {
	MinFee   string             `yaml:"min_fee"`
	MaxFee   string             `yaml:"max_fee"`
	Brackets []FeeBracketConfig `yaml:"brackets"`
}

type FeeBracketConfig struct {
	UpTo    string `yaml:"up_to"` // empty for the open-ended last bracket
	Flat    string `yaml:"flat"`
	Percent string `yaml:"percent"`
}

type User struct {
	ID           string `yaml:"id"`
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"` // bcrypt
	Tenant       string `yaml:"tenant"`
	Role         string `yaml:"role"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerMinute == 0 {
		c.Server.RateLimitPerMinute = 100
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}
	if c.Contracts.MaxReactivations == 0 {
		c.Contracts.MaxReactivations = DefaultMaxReactivations
	}
	if c.Contracts.NumberPrefix == "" {
		c.Contracts.NumberPrefix = "CNT"
	}
	for i := range c.Users {
		if c.Users[i].ID == "" {
			c.Users[i].ID = c.Users[i].Username
		}
		if c.Users[i].Role == "" {
			c.Users[i].Role = "viewer"
		}
	}
}

// Validate checks settings that have no safe default
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres, DriverSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Contracts.MaxReactivations < 0 {
		return fmt.Errorf("contracts.max_reactivations must not be negative")
	}
	return nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
