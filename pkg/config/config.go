// Package config loads the client configuration from a TOML or YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Config is the complete client configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" yaml:"server"`
	Session  SessionConfig  `toml:"session" yaml:"session"`
	Realtime RealtimeConfig `toml:"realtime" yaml:"realtime"`
	UI       UIConfig       `toml:"ui" yaml:"ui"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// ServerConfig locates the service.
type ServerConfig struct {
	APIURL         string   `toml:"api_url" yaml:"api_url" env:"RALLY_API_URL"`
	SocketURL      string   `toml:"socket_url" yaml:"socket_url" env:"RALLY_SOCKET_URL"`
	RequestTimeout Duration `toml:"request_timeout" yaml:"request_timeout"`
	InitTimeout    Duration `toml:"init_timeout" yaml:"init_timeout"`
}

// SessionConfig controls token storage. Token is only ever read from the
// environment.
type SessionConfig struct {
	Token       string   `toml:"-" yaml:"-" env:"RALLY_TOKEN"`
	StoreDir    string   `toml:"store_dir" yaml:"store_dir" env:"RALLY_STORE_DIR"`
	RefreshSkew Duration `toml:"refresh_skew" yaml:"refresh_skew"`
}

// RealtimeConfig tunes the push channel. Preset fills any value left unset.
type RealtimeConfig struct {
	Preset         string   `toml:"preset" yaml:"preset" env:"RALLY_REALTIME_PRESET"`
	MinBackoff     Duration `toml:"min_backoff" yaml:"min_backoff"`
	MaxBackoff     Duration `toml:"max_backoff" yaml:"max_backoff"`
	PingInterval   Duration `toml:"ping_interval" yaml:"ping_interval"`
	CatchUpTimeout Duration `toml:"catch_up_timeout" yaml:"catch_up_timeout"`
}

// UIConfig controls the terminal interface. An empty StartPath resumes the
// last visited page.
type UIConfig struct {
	Theme        string   `toml:"theme" yaml:"theme" env:"RALLY_THEME"`
	ThemeFile    string   `toml:"theme_file" yaml:"theme_file"`
	TickInterval Duration `toml:"tick_interval" yaml:"tick_interval"`
	BannerTTL    Duration `toml:"banner_ttl" yaml:"banner_ttl"`
	LeaderKey    string   `toml:"leader_key" yaml:"leader_key"`
	Monochrome   bool     `toml:"monochrome" yaml:"monochrome" env:"RALLY_MONOCHROME"`
	AltScreen    bool     `toml:"alt_screen" yaml:"alt_screen"`
	StartPath    string   `toml:"start_path" yaml:"start_path"`
	TimeZone     string   `toml:"time_zone" yaml:"time_zone" env:"RALLY_TZ"`
}

// LogConfig controls the log file. The terminal belongs to the interface,
// so logs never go to stderr.
type LogConfig struct {
	Level string `toml:"level" yaml:"level" env:"RALLY_LOG_LEVEL"`
	File  string `toml:"file" yaml:"file" env:"RALLY_LOG_FILE"`
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks the configuration and fills derived values: the socket
// URL from the API URL, and unset realtime values from the preset.
func (c *Config) Validate() error {
	var errs []error

	api, err := url.Parse(c.Server.APIURL)
	switch {
	case c.Server.APIURL == "":
		errs = append(errs, errors.New("server.api_url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("server.api_url: %w", err))
	case api.Scheme != "http" && api.Scheme != "https":
		errs = append(errs, fmt.Errorf("server.api_url: scheme %q must be http or https", api.Scheme))
	case c.Server.SocketURL == "":
		c.Server.SocketURL = socketURLFor(api)
	}
	if c.Server.SocketURL != "" {
		if u, err := url.Parse(c.Server.SocketURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			errs = append(errs, fmt.Errorf("server.socket_url: %q must be a ws or wss URL", c.Server.SocketURL))
		}
	}

	preset, ok := RealtimePreset(c.Realtime.Preset)
	if !ok {
		errs = append(errs, fmt.Errorf("realtime.preset: unknown preset %q", c.Realtime.Preset))
	}
	c.Realtime = c.Realtime.withDefaults(preset)
	if c.Realtime.MaxBackoff.Duration < c.Realtime.MinBackoff.Duration {
		errs = append(errs, errors.New("realtime.max_backoff must not be below min_backoff"))
	}

	if c.UI.TickInterval.Duration <= 0 {
		errs = append(errs, errors.New("ui.tick_interval must be positive"))
	}
	if utf8.RuneCountInString(c.UI.LeaderKey) != 1 {
		errs = append(errs, fmt.Errorf("ui.leader_key: %q must be a single key", c.UI.LeaderKey))
	}

	c.Log.Level = strings.ToLower(c.Log.Level)
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// socketURLFor derives the push channel endpoint from the API endpoint:
// same host, ws scheme, path /socket.
func socketURLFor(api *url.URL) string {
	u := *api
	u.Scheme = "ws"
	if api.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path = "/socket"
	u.RawQuery = ""
	return u.String()
}
