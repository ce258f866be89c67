package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Server.APIURL = "https://rally.example.com/api"
	return cfg
}

func TestLoadTOML(t *testing.T) {
	p := writeFile(t, "config.toml", `
[server]
api_url = "https://rally.example.com/api"
request_timeout = "5s"

[realtime]
preset = "eager"
max_backoff = "8s"

[ui]
theme = "nord"
leader_key = " "
`)
	cfg, err := LoadFromFile(p)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Server.RequestTimeout.Duration != 5*time.Second {
		t.Errorf("request_timeout = %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.InitTimeout.Duration != 20*time.Second {
		t.Errorf("init_timeout default lost: %v", cfg.Server.InitTimeout)
	}
	if cfg.Realtime.MaxBackoff.Duration != 8*time.Second {
		t.Errorf("explicit max_backoff overridden: %v", cfg.Realtime.MaxBackoff)
	}
	if cfg.UI.Theme != "nord" || cfg.UI.LeaderKey != " " {
		t.Errorf("ui = %+v", cfg.UI)
	}
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "config.yml", `
server:
  api_url: http://localhost:4000/api
ui:
  tick_interval: 250ms
  monochrome: true
log:
  level: DEBUG
`)
	cfg, err := LoadFromFile(p)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.UI.TickInterval.Duration != 250*time.Millisecond || !cfg.UI.Monochrome {
		t.Errorf("ui = %+v", cfg.UI)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q, want lowercased", cfg.Log.Level)
	}
	if cfg.Server.SocketURL != "ws://localhost:4000/socket" {
		t.Errorf("socket_url = %q", cfg.Server.SocketURL)
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	p := writeFile(t, "config.yaml", "")
	cfg, err := LoadFromFile(p)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.UI.Theme != "default" {
		t.Errorf("theme = %q, want default", cfg.UI.Theme)
	}
}

func TestLoadParseError(t *testing.T) {
	p := writeFile(t, "config.toml", "[server\n")
	_, err := LoadFromFile(p)
	if err == nil || !strings.Contains(err.Error(), "parse TOML") {
		t.Fatalf("err = %v, want parse error", err)
	}
	if !strings.Contains(err.Error(), p) {
		t.Errorf("err = %v, want path", err)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit path")
	}
}

func TestLoadSearchesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "rally"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := "server:\n  api_url: https://found.example.com\n"
	if err := os.WriteFile(filepath.Join(dir, "rally", "config.yaml"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.APIURL != "https://found.example.com" {
		t.Errorf("api_url = %q", cfg.Server.APIURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	p := writeFile(t, "config.toml", `
[server]
api_url = "https://file.example.com"
[ui]
theme = "nord"
`)
	t.Setenv("RALLY_API_URL", "https://env.example.com")
	t.Setenv("RALLY_TOKEN", "tok")
	t.Setenv("RALLY_MONOCHROME", "true")

	cfg, err := LoadFromFile(p)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Server.APIURL != "https://env.example.com" {
		t.Errorf("api_url = %q, want env value", cfg.Server.APIURL)
	}
	if cfg.Session.Token != "tok" {
		t.Errorf("token = %q", cfg.Session.Token)
	}
	if !cfg.UI.Monochrome {
		t.Error("monochrome not taken from env")
	}
	if cfg.UI.Theme != "nord" {
		t.Errorf("theme = %q, unset env must keep the file value", cfg.UI.Theme)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing api url", func(c *Config) { c.Server.APIURL = "" }, "api_url is required"},
		{"bad api scheme", func(c *Config) { c.Server.APIURL = "ftp://x" }, "must be http or https"},
		{"bad socket scheme", func(c *Config) { c.Server.SocketURL = "http://x/socket" }, "ws or wss"},
		{"unknown preset", func(c *Config) { c.Realtime.Preset = "turbo" }, "unknown preset"},
		{"inverted backoff", func(c *Config) {
			c.Realtime.MinBackoff = D(time.Minute)
			c.Realtime.MaxBackoff = D(time.Second)
		}, "max_backoff"},
		{"zero tick", func(c *Config) { c.UI.TickInterval = D(0) }, "tick_interval"},
		{"long leader", func(c *Config) { c.UI.LeaderKey = "gg" }, "leader_key"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.APIURL = ""
	cfg.Log.Level = "loud"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"api_url", "log.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestSocketURLDerivation(t *testing.T) {
	tests := []struct {
		api, want string
	}{
		{"https://rally.example.com/api", "wss://rally.example.com/socket"},
		{"http://localhost:4000", "ws://localhost:4000/socket"},
		{"https://rally.example.com/api?x=1", "wss://rally.example.com/socket"},
	}
	for _, tt := range tests {
		cfg := validConfig()
		cfg.Server.APIURL = tt.api
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate(%s): %v", tt.api, err)
		}
		if cfg.Server.SocketURL != tt.want {
			t.Errorf("socket for %s = %q, want %q", tt.api, cfg.Server.SocketURL, tt.want)
		}
	}
}

func TestExplicitSocketURLKept(t *testing.T) {
	cfg := validConfig()
	cfg.Server.SocketURL = "wss://push.example.com/ws"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.SocketURL != "wss://push.example.com/ws" {
		t.Errorf("socket_url = %q", cfg.Server.SocketURL)
	}
}

func TestRealtimePresets(t *testing.T) {
	for _, name := range []string{"", "default", "eager", "relaxed"} {
		p, ok := RealtimePreset(name)
		if !ok {
			t.Errorf("preset %q not found", name)
			continue
		}
		if p.MinBackoff.Duration <= 0 || p.MaxBackoff.Duration < p.MinBackoff.Duration {
			t.Errorf("preset %q backoff = %v..%v", name, p.MinBackoff, p.MaxBackoff)
		}
	}
	if _, ok := RealtimePreset("turbo"); ok {
		t.Error("unknown preset reported found")
	}
}

func TestPresetFillsUnsetValues(t *testing.T) {
	cfg := validConfig()
	cfg.Realtime = RealtimeConfig{Preset: "relaxed", PingInterval: D(time.Second)}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Realtime.PingInterval.Duration != time.Second {
		t.Errorf("ping = %v, explicit value must win", cfg.Realtime.PingInterval)
	}
	if cfg.Realtime.MaxBackoff.Duration != 2*time.Minute {
		t.Errorf("max_backoff = %v, want relaxed preset", cfg.Realtime.MaxBackoff)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"500ms", 500 * time.Millisecond, false},
		{"2m", 2 * time.Minute, false},
		{"soon", 0, true},
		{"-1s", 0, true},
	}
	for _, tt := range tests {
		var d Duration
		err := d.UnmarshalText([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalText(%q) err = %v", tt.in, err)
			continue
		}
		if err == nil && d.Duration != tt.want {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.in, d.Duration, tt.want)
		}
	}
	if b, _ := D(30 * time.Second).MarshalText(); string(b) != "30s" {
		t.Errorf("MarshalText = %q", b)
	}
}
