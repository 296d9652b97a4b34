package country

import (
	"context"
	"log"
	"sync"
)

// Unknown is returned when a code cannot be resolved.
const Unknown = "Unknown"

// Static maps the codes we always know to their country names.
var Static = map[string]string{
	"GRU": "Brazil",
	"CDG": "France",
	"JFK": "United States",
	"LIS": "Portugal",
	"EZE": "Argentina",
	"MAD": "Spain",
}

// Lookup resolves a location code to a country name through an external source.
type Lookup interface {
	LocationCountry(ctx context.Context, code string) (string, error)
}

// Resolver maps location codes to country names: static table first, then
// the session cache, then the external lookup. Only successful lookups are
// cached, so a failed code is retried on the next call.
type Resolver struct {
	static map[string]string
	lookup Lookup

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates a Resolver over the static table and lookup.
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{
		static: Static,
		lookup: lookup,
		cache:  make(map[string]string),
	}
}

// Resolve never fails; unresolvable codes yield Unknown.
func (r *Resolver) Resolve(ctx context.Context, code string) string {
	if name, ok := r.static[code]; ok {
		return name
	}

	r.mu.Lock()
	name, ok := r.cache[code]
	r.mu.Unlock()
	if ok {
		return name
	}

	if r.lookup == nil {
		log.Printf("[WARN] no country lookup configured for %s, using %q", code, Unknown)
		return Unknown
	}
	name, err := r.lookup.LocationCountry(ctx, code)
	if err != nil {
		log.Printf("[WARN] country lookup for %s failed: %v, using %q", code, err, Unknown)
		return Unknown
	}
	if name == "" {
		log.Printf("[WARN] country lookup for %s returned no name, using %q", code, Unknown)
		return Unknown
	}

	r.mu.Lock()
	r.cache[code] = name
	r.mu.Unlock()
	return name
}

// Cached reports the cached name for code, if any.
func (r *Resolver) Cached(code string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.cache[code]
	return name, ok
}
