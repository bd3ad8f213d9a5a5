// Package config loads the portal configuration from the environment and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	GatewayConfig
	StorageConfig
	MockAPIConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	values
}

// values mirrors the environment variables. Getters apply defaults and parsing.
type values struct {
	AppName  string `mapstructure:"APP_NAME"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	APIBaseURL     string `mapstructure:"API_BASE_URL"`
	RequestTimeout string `mapstructure:"API_TIMEOUT"`

	StateFile string `mapstructure:"STATE_FILE"`

	MockListenAddr       string `mapstructure:"MOCK_API_ADDR"`
	MockJWTSecret        string `mapstructure:"MOCK_API_JWT_SECRET"`
	MockAccessTokenTTL   string `mapstructure:"MOCK_API_ACCESS_TTL"`
	MockPaymentTokenTTL  string `mapstructure:"MOCK_API_PAYMENT_TTL"`
	MockOTPTTL           string `mapstructure:"MOCK_API_OTP_TTL"`
	MockOTPPerMinute     int    `mapstructure:"MOCK_API_OTP_PER_MINUTE"`
	MockSeedAdminPass    string `mapstructure:"MOCK_API_ADMIN_PASSWORD"`
	MockSeedEmployeePass string `mapstructure:"MOCK_API_EMPLOYEE_PASSWORD"`
}

// New reads .env (if present) then the environment.
func New() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	return FromViper(v)
}

// FromViper builds a Config from an already prepared Viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	var cfg mainConfig
	if err := v.Unmarshal(&cfg.values); err != nil {
		return nil, err
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("config: API_BASE_URL must be set")
	}
	if cfg.GetRequestTimeout() <= 0 {
		return nil, errors.New("config: API_TIMEOUT must be positive")
	}
	if cfg.MockOTPPerMinute < 0 {
		return nil, errors.New("config: MOCK_API_OTP_PER_MINUTE must not be negative")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "HR Portal")
	v.SetDefault("ENV", "DEV")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("API_BASE_URL", "http://localhost:8081/api")
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("STATE_FILE", "")
	v.SetDefault("MOCK_API_ADDR", ":8081")
	v.SetDefault("MOCK_API_JWT_SECRET", "")
	v.SetDefault("MOCK_API_ACCESS_TTL", "1h")
	v.SetDefault("MOCK_API_PAYMENT_TTL", "10m")
	v.SetDefault("MOCK_API_OTP_TTL", "5m")
	v.SetDefault("MOCK_API_OTP_PER_MINUTE", 3)
	v.SetDefault("MOCK_API_ADMIN_PASSWORD", "Admin1234")
	v.SetDefault("MOCK_API_EMPLOYEE_PASSWORD", "Employee1234")
}

func (c mainConfig) GetAppName() string {
	return c.AppName
}

func (c mainConfig) GetEnv() string {
	if c.Env == "" {
		return "DEV"
	}
	return c.Env
}

func (c mainConfig) GetLogLevel() string {
	return c.LogLevel
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
