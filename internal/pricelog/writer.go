package pricelog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/jszwec/csvutil"

	"FareSentinel/internal/model"
)

// ErrLocked means the log is held by another process. The rows of the
// failed append are dropped, not retried.
var ErrLocked = errors.New("price log is locked by another process")

// Header is the fixed column order of the price log.
var Header = []string{
	"timestamp", "origem", "pais_origem", "destino", "pais_destino",
	"data_voo", "companhia", "preco_original", "moeda", "preco_brl", "assentos",
}

// money is written with exactly two decimals.
type money float64

func (m money) MarshalCSV() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(m), 'f', 2, 64), nil
}

// row mirrors Header; field order is column order.
type row struct {
	Timestamp          string `csv:"timestamp"`
	Origin             string `csv:"origem"`
	OriginCountry      string `csv:"pais_origem"`
	Destination        string `csv:"destino"`
	DestinationCountry string `csv:"pais_destino"`
	TravelDate         string `csv:"data_voo"`
	Carrier            string `csv:"companhia"`
	OriginalPrice      money  `csv:"preco_original"`
	Currency           string `csv:"moeda"`
	HomePrice          money  `csv:"preco_brl"`
	Seats              int    `csv:"assentos"`
}

func toRow(o model.PriceOffer) row {
	return row{
		Timestamp:          o.Timestamp.Format(model.TimestampLayout),
		Origin:             o.Origin,
		OriginCountry:      o.OriginCountry,
		Destination:        o.Destination,
		DestinationCountry: o.DestinationCountry,
		TravelDate:         o.TravelDate,
		Carrier:            o.Carrier,
		OriginalPrice:      money(o.OriginalPrice),
		Currency:           o.Currency,
		HomePrice:          money(o.HomePrice),
		Seats:              o.Seats,
	}
}

// Writer appends offers to a CSV file. Concurrent writers are excluded
// with an advisory lock on a sidecar "<path>.lock" file.
type Writer struct {
	path string
	lock *flock.Flock
}

// NewWriter creates a Writer for the CSV file at path.
func NewWriter(path string) *Writer {
	return &Writer{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the CSV file path.
func (w *Writer) Path() string { return w.path }

// LockPath returns the sidecar lock file path.
func (w *Writer) LockPath() string { return w.lock.Path() }

// Append writes offers as rows, preceded by the header when the file is new
// or empty. It never blocks on the lock: a held lock or a permission error
// yields ErrLocked and nothing is written.
func (w *Writer) Append(offers []model.PriceOffer) error {
	if len(offers) == 0 {
		return nil
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
	}

	locked, err := w.lock.TryLock()
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %v", ErrLocked, err)
		}
		return fmt.Errorf("lock %s: %w", w.lock.Path(), err)
	}
	if !locked {
		return ErrLocked
	}
	defer w.lock.Unlock()

	needHeader := true
	if info, err := os.Stat(w.path); err == nil {
		needHeader = info.Size() == 0
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", w.path, err)
	}

	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %v", ErrLocked, err)
		}
		return fmt.Errorf("open %s: %w", w.path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = needHeader
	for _, o := range offers {
		if err := enc.Encode(toRow(o)); err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	return f.Close()
}
