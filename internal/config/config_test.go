package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AMADEUS_ID", "id")
	t.Setenv("AMADEUS_SECRET", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Watchlist) != 3 || cfg.Watchlist[0].Destination != "CDG" || cfg.Watchlist[0].TargetPrice != 3500 {
		t.Errorf("unexpected default watchlist %+v", cfg.Watchlist)
	}
	if cfg.Log.CSVPath != "historico_de_precos.csv" {
		t.Errorf("unexpected csv path %q", cfg.Log.CSVPath)
	}
	if cfg.Schedule.RouteDelay != 2*time.Second || cfg.Schedule.Cycle != "@every 1h" {
		t.Errorf("unexpected schedule %+v", cfg.Schedule)
	}
	if cfg.Exchange.FallbackRate != 5.50 {
		t.Errorf("unexpected fallback rate %v", cfg.Exchange.FallbackRate)
	}
	if cfg.Email.SMTPPort != 465 {
		t.Errorf("unexpected smtp port %d", cfg.Email.SMTPPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
watchlist:
  - origin: GRU
    destination: EZE
    date: "2026-11-02"
    target_price: 1200
amadeus:
  client_id: from-file
  client_secret: file-secret
schedule:
  cycle: "@every 30m"
  route_delay: 5s
log:
  csv_path: out/prices.csv
`)
	t.Setenv("AMADEUS_ID", "from-env")
	t.Setenv("AMADEUS_SECRET", "")
	t.Setenv("EMAIL_PASSWORD", "app-pass")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Watchlist) != 1 || cfg.Watchlist[0].Destination != "EZE" || cfg.Watchlist[0].Date != "2026-11-02" {
		t.Errorf("unexpected watchlist %+v", cfg.Watchlist)
	}
	if cfg.Amadeus.ClientID != "from-env" || cfg.Amadeus.ClientSecret != "file-secret" {
		t.Errorf("unexpected amadeus credentials %+v", cfg.Amadeus)
	}
	if cfg.Email.Password != "app-pass" {
		t.Errorf("expected password from env")
	}
	if cfg.Schedule.Cycle != "@every 30m" || cfg.Schedule.RouteDelay != 5*time.Second {
		t.Errorf("unexpected schedule %+v", cfg.Schedule)
	}
	if cfg.Log.CSVPath != "out/prices.csv" {
		t.Errorf("unexpected csv path %q", cfg.Log.CSVPath)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "watchlist: [\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("AMADEUS_ID", "id")
	t.Setenv("AMADEUS_SECRET", "secret")
	base, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"lowercase origin", func(c *Config) { c.Watchlist[0].Origin = "gru" }},
		{"long destination", func(c *Config) { c.Watchlist[0].Destination = "CDGX" }},
		{"bad date", func(c *Config) { c.Watchlist[1].Date = "15/05/2026" }},
		{"zero target", func(c *Config) { c.Watchlist[2].TargetPrice = 0 }},
		{"missing secret", func(c *Config) { c.Amadeus.ClientSecret = "" }},
		{"bad cycle", func(c *Config) { c.Schedule.Cycle = "every hour" }},
		{"negative delay", func(c *Config) { c.Schedule.RouteDelay = -time.Second }},
		{"zero delay", func(c *Config) { c.Schedule.RouteDelay = 0 }},
		{"unknown environment", func(c *Config) { c.Amadeus.Environment = "staging" }},
		{"empty watchlist", func(c *Config) { c.Watchlist = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			c.Watchlist = append(c.Watchlist[:0:0], base.Watchlist...)
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_AmadeusEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		baseURL string
		want    string
	}{
		{"default is test", "", "", "https://test.api.amadeus.com"},
		{"production", "production", "", "https://api.amadeus.com"},
		{"explicit url wins", "production", "http://localhost:8080", "http://localhost:8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AMADEUS_ENV", tt.env)
			t.Setenv("AMADEUS_BASE_URL", tt.baseURL)
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Amadeus.BaseURL != tt.want {
				t.Errorf("expected base url %q, got %q", tt.want, cfg.Amadeus.BaseURL)
			}
		})
	}
}
