package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/screenctl/internal/control"
)

type fileConfig struct {
	Endpoint         string `toml:"endpoint"`
	DeviceID         string `toml:"device_id"`
	Action           string `toml:"action"`
	ReconnectDelay   string `toml:"reconnect_delay"`
	ReconnectDelayMS int64  `toml:"reconnect_delay_ms"`
	ConnectTimeout   string `toml:"connect_timeout"`
	WriteTimeout     string `toml:"write_timeout"`
}

// loadClientConfig overlays file values onto defaults; absent keys keep their
// default.
func loadClientConfig(path string) (control.Config, error) {
	cfg := control.DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return control.Config{}, fmt.Errorf("load client config: %w", err)
	}

	if meta.IsDefined("endpoint") {
		cfg.Endpoint = strings.TrimSpace(raw.Endpoint)
	}
	if meta.IsDefined("device_id") {
		cfg.DeviceID = strings.TrimSpace(raw.DeviceID)
	}
	if meta.IsDefined("action") {
		action := strings.TrimSpace(raw.Action)
		if action != "" {
			cfg.Action = action
		}
	}

	if meta.IsDefined("reconnect_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReconnectDelay))
		if err != nil {
			return control.Config{}, fmt.Errorf("parse reconnect_delay: %w", err)
		}
		cfg.Session.Retry.InitialDelay = d
	}
	if meta.IsDefined("reconnect_delay_ms") {
		if raw.ReconnectDelayMS <= 0 {
			return control.Config{}, fmt.Errorf("parse reconnect_delay_ms: must be positive, got %d", raw.ReconnectDelayMS)
		}
		cfg.Session.Retry.InitialDelay = time.Duration(raw.ReconnectDelayMS) * time.Millisecond
	}
	if meta.IsDefined("connect_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ConnectTimeout))
		if err != nil {
			return control.Config{}, fmt.Errorf("parse connect_timeout: %w", err)
		}
		cfg.Session.ConnectTimeout = d
	}
	if meta.IsDefined("write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteTimeout))
		if err != nil {
			return control.Config{}, fmt.Errorf("parse write_timeout: %w", err)
		}
		cfg.Session.WriteTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return control.Config{}, err
	}
	return cfg, nil
}
