package config

import "time"

type GatewayConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
}

var _ GatewayConfig = mainConfig{}

// GetBaseURL returns the backend API root (e.g. "https://hr.example.com/api")
func (c mainConfig) GetBaseURL() string {
	return c.APIBaseURL
}

// GetRequestTimeout returns the per-request timeout, 10s unless overridden.
// An unparsable value yields 0 so FromViper can reject it.
func (c mainConfig) GetRequestTimeout() time.Duration {
	return parseDuration(c.RequestTimeout, 0)
}
