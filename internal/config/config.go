package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"FareSentinel/internal/amadeus"
	"FareSentinel/internal/exchange"
	"FareSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Watchlist []model.WatchItem `yaml:"watchlist"`
	Amadeus   struct {
		Environment  string `yaml:"environment"`
		BaseURL      string `yaml:"base_url"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
	} `yaml:"amadeus"`
	Exchange struct {
		URL          string  `yaml:"url"`
		FallbackRate float64 `yaml:"fallback_rate"`
	} `yaml:"exchange"`
	Email struct {
		SMTPHost string `yaml:"smtp_host"`
		SMTPPort int    `yaml:"smtp_port"`
		From     string `yaml:"from"`
		To       string `yaml:"to"`
		Password string `yaml:"-"`
	} `yaml:"email"`
	Log struct {
		CSVPath    string `yaml:"csv_path"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"log"`
	Schedule struct {
		Cycle      string        `yaml:"cycle"`
		RouteDelay time.Duration `yaml:"route_delay"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// DefaultWatchlist is used when the config file names no routes.
var DefaultWatchlist = []model.WatchItem{
	{Origin: "GRU", Destination: "CDG", Date: "2026-05-15", TargetPrice: 3500},
	{Origin: "GRU", Destination: "JFK", Date: "2026-06-10", TargetPrice: 2800},
	{Origin: "GRU", Destination: "LIS", Date: "2026-09-20", TargetPrice: 3200},
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults fill every unset field.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("AMADEUS_ID"); v != "" {
		cfg.Amadeus.ClientID = v
	}
	if v := os.Getenv("AMADEUS_SECRET"); v != "" {
		cfg.Amadeus.ClientSecret = v
	}
	if v := os.Getenv("AMADEUS_ENV"); v != "" {
		cfg.Amadeus.Environment = v
	}
	if v := os.Getenv("AMADEUS_BASE_URL"); v != "" {
		cfg.Amadeus.BaseURL = v
	}
	if v := os.Getenv("EMAIL_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("EMAIL_TO"); v != "" {
		cfg.Email.To = v
	}
	if v := os.Getenv("PRICE_LOG_PATH"); v != "" {
		cfg.Log.CSVPath = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Log.SQLitePath = v
	}
	if v := os.Getenv("CYCLE_SCHEDULE"); v != "" {
		cfg.Schedule.Cycle = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Email.SMTPPort = port
		}
	}

	// Defaults
	if len(cfg.Watchlist) == 0 {
		cfg.Watchlist = append([]model.WatchItem(nil), DefaultWatchlist...)
	}
	if cfg.Amadeus.Environment == "" {
		cfg.Amadeus.Environment = "test"
	}
	if cfg.Amadeus.BaseURL == "" {
		// An unknown environment leaves BaseURL empty for Validate to report.
		cfg.Amadeus.BaseURL, _ = amadeus.BaseURLFor(cfg.Amadeus.Environment)
	}
	if cfg.Exchange.URL == "" {
		cfg.Exchange.URL = exchange.DefaultURL
	}
	if cfg.Exchange.FallbackRate == 0 {
		cfg.Exchange.FallbackRate = exchange.FallbackRate
	}
	if cfg.Email.SMTPHost == "" {
		cfg.Email.SMTPHost = "smtp.gmail.com"
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 465
	}
	if cfg.Email.From == "" {
		cfg.Email.From = "faresentinel@example.com"
	}
	if cfg.Email.To == "" {
		cfg.Email.To = "traveler@example.com"
	}
	if cfg.Log.CSVPath == "" {
		cfg.Log.CSVPath = "historico_de_precos.csv"
	}
	if cfg.Schedule.Cycle == "" {
		cfg.Schedule.Cycle = "@every 1h"
	}
	if cfg.Schedule.RouteDelay == 0 {
		cfg.Schedule.RouteDelay = 2 * time.Second
	}

	return cfg, nil
}

var locationCode = regexp.MustCompile(`^[A-Z]{3}$`)

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist must not be empty")
	}
	for i, w := range c.Watchlist {
		if !locationCode.MatchString(w.Origin) {
			return fmt.Errorf("watchlist[%d].origin %q must be a 3-letter uppercase code", i, w.Origin)
		}
		if !locationCode.MatchString(w.Destination) {
			return fmt.Errorf("watchlist[%d].destination %q must be a 3-letter uppercase code", i, w.Destination)
		}
		if _, err := time.Parse("2006-01-02", w.Date); err != nil {
			return fmt.Errorf("watchlist[%d].date %q must be YYYY-MM-DD", i, w.Date)
		}
		if w.TargetPrice <= 0 {
			return fmt.Errorf("watchlist[%d].target_price must be positive", i)
		}
	}
	if c.Amadeus.ClientID == "" || c.Amadeus.ClientSecret == "" {
		return fmt.Errorf("amadeus client id and secret are required (AMADEUS_ID, AMADEUS_SECRET)")
	}
	if _, err := amadeus.BaseURLFor(c.Amadeus.Environment); err != nil {
		return err
	}
	if c.Exchange.FallbackRate <= 0 {
		return fmt.Errorf("exchange.fallback_rate must be positive")
	}
	if c.Schedule.RouteDelay <= 0 {
		return fmt.Errorf("schedule.route_delay must be positive")
	}
	if _, err := cron.ParseStandard(c.Schedule.Cycle); err != nil {
		return fmt.Errorf("schedule.cycle %q: %w", c.Schedule.Cycle, err)
	}
	if c.Email.To == "" || c.Email.From == "" {
		return fmt.Errorf("email.from and email.to are required")
	}
	return nil
}
