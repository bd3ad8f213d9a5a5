package config

import "time"

type MockAPIConfig interface {
	GetListenAddr() string
	GetJWTSecret() string
	GetAccessTokenTTL() time.Duration
	GetPaymentTokenTTL() time.Duration
	GetOTPTTL() time.Duration
	GetOTPRequestsPerMinute() int
	GetSeedAdminPassword() string
	GetSeedEmployeePassword() string
}

var _ MockAPIConfig = mainConfig{}

func (c mainConfig) GetListenAddr() string {
	return c.MockListenAddr
}

// GetJWTSecret returns the HMAC secret for stub tokens. Empty means "generate one at startup".
func (c mainConfig) GetJWTSecret() string {
	return c.MockJWTSecret
}

func (c mainConfig) GetAccessTokenTTL() time.Duration {
	return parseDuration(c.MockAccessTokenTTL, time.Hour)
}

func (c mainConfig) GetPaymentTokenTTL() time.Duration {
	return parseDuration(c.MockPaymentTokenTTL, 10*time.Minute)
}

func (c mainConfig) GetOTPTTL() time.Duration {
	return parseDuration(c.MockOTPTTL, 5*time.Minute)
}

func (c mainConfig) GetOTPRequestsPerMinute() int {
	return c.MockOTPPerMinute
}

func (c mainConfig) GetSeedAdminPassword() string {
	return c.MockSeedAdminPass
}

func (c mainConfig) GetSeedEmployeePassword() string {
	return c.MockSeedEmployeePass
}
