package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"FareSentinel/internal/amadeus"
	"FareSentinel/internal/config"
	"FareSentinel/internal/country"
	"FareSentinel/internal/exchange"
	"FareSentinel/internal/notifier"
	"FareSentinel/internal/pricelog"
	"FareSentinel/internal/recorder"
	"FareSentinel/internal/scheduler"
	"FareSentinel/internal/search"
	"FareSentinel/internal/secrets"
)

func main() {
	setPassword := flag.Bool("set-password", false, "read the SMTP app password from stdin, store it in the OS keychain and exit")
	flag.Parse()

	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] FareSentinel starting...")

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}

	account := secrets.SMTPKeyringAccount(cfg.Email.From, cfg.Email.SMTPHost)
	if *setPassword {
		log.Printf("[INFO] enter the SMTP app password for %s", cfg.Email.From)
		if err := secrets.StoreSMTPPassword(os.Stdin, account); err != nil {
			log.Fatalf("[FATAL] store smtp password: %v", err)
		}
		log.Println("[INFO] smtp password stored in the keychain")
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	password, err := secrets.SMTPPassword(cfg.Email.Password, account)
	if err != nil {
		log.Printf("[WARN] smtp password unavailable (%v), alerts will fail until EMAIL_PASSWORD is set or -set-password is run", err)
	}

	// Collaborators
	client := amadeus.NewClient(cfg.Amadeus.BaseURL, cfg.Amadeus.ClientID, cfg.Amadeus.ClientSecret, cfg.Proxy)
	resolver := country.NewResolver(client)
	searcher := search.NewSearcher(client, resolver)
	rates := exchange.NewProvider(cfg.Exchange.URL, cfg.Exchange.FallbackRate, cfg.Proxy)
	priceLog := pricelog.NewWriter(cfg.Log.CSVPath)
	en := notifier.NewEmailNotifier(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.From, cfg.Email.To, password)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Log.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Log.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	sched, err := scheduler.NewScheduler(cfg.Watchlist, rates, searcher, priceLog, en, rec,
		cfg.Schedule.Cycle, cfg.Schedule.RouteDelay)
	if err != nil {
		log.Fatalf("[FATAL] init scheduler: %v", err)
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("[INFO] monitoring %d routes, alerts go to %s, prices logged to %s",
		len(cfg.Watchlist), cfg.Email.To, priceLog.Path())

	if os.Getenv("RUN_ONCE") == "true" {
		log.Println("[INFO] RUN_ONCE enabled, executing a single cycle")
		sched.RunCycle(ctx)
		return
	}

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[ERROR] scheduler stopped: %v", err)
	}
	log.Println("[INFO] FareSentinel stopped")
}
