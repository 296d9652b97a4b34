package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"FareSentinel/internal/model"
)

// SQLiteRecorder persists price history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			run_id         TEXT PRIMARY KEY,
			started_at     INTEGER NOT NULL,
			finished_at    INTEGER NOT NULL,
			rate           REAL,
			rate_is_live   INTEGER,
			routes_checked INTEGER,
			offers_found   INTEGER,
			alerts_sent    INTEGER,
			log_failures   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started_at)`,

		`CREATE TABLE IF NOT EXISTS offers (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id              TEXT NOT NULL,
			timestamp           INTEGER NOT NULL,
			origin              TEXT,
			origin_country      TEXT,
			destination         TEXT,
			destination_country TEXT,
			travel_date         TEXT,
			carrier             TEXT,
			original_price      REAL,
			currency            TEXT,
			home_price          REAL,
			seats               INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_route ON offers(origin, destination, travel_date)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			origin       TEXT,
			destination  TEXT,
			travel_date  TEXT,
			price        REAL,
			currency     TEXT,
			target_price REAL,
			delivered    INTEGER,
			error        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(c *Cycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO cycles
		(run_id, started_at, finished_at, rate, rate_is_live, routes_checked, offers_found, alerts_sent, log_failures)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		c.RunID, c.StartedAt.Unix(), c.FinishedAt.Unix(), c.Rate, c.RateIsLive,
		c.RoutesChecked, c.OffersFound, c.AlertsSent, c.LogFailures,
	)
	return err
}

func (r *SQLiteRecorder) RecordOffers(runID string, offers []model.PriceOffer) error {
	if len(offers) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO offers
		(run_id, timestamp, origin, origin_country, destination, destination_country,
		 travel_date, carrier, original_price, currency, home_price, seats)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range offers {
		if _, err := stmt.Exec(runID, o.Timestamp.Unix(), o.Origin, o.OriginCountry,
			o.Destination, o.DestinationCountry, o.TravelDate, o.Carrier,
			o.OriginalPrice, o.Currency, o.HomePrice, o.Seats); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert offer: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordAlert(evt *AlertEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO alerts
		(run_id, timestamp, origin, destination, travel_date, price, currency, target_price, delivered, error)
		VALUES (?,strftime('%s','now'),?,?,?,?,?,?,?,?)`,
		evt.RunID, evt.Origin, evt.Alert.Destination, evt.Alert.Date,
		evt.Alert.Price, evt.Alert.Currency, evt.TargetPrice, evt.Delivered, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
