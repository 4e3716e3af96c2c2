package session

import "time"

// RetryConfig defines reconnect delay behavior.
type RetryConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines transport reliability defaults.
type Config struct {
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Retry            RetryConfig
}

// DefaultConfig keeps the fixed two-second reconnect cadence; growth and
// jitter stay available through RetryConfig.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     15 * time.Second,
		Retry: RetryConfig{
			InitialDelay: 2 * time.Second,
			Multiplier:   1.0,
			MaxDelay:     0,
			Jitter:       false,
		},
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.Retry.InitialDelay <= 0 {
		c.Retry.InitialDelay = def.Retry.InitialDelay
	}
	if c.Retry.Multiplier < 1.0 {
		c.Retry.Multiplier = def.Retry.Multiplier
	}
	return c
}
