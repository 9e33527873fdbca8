// Package cache maps request fingerprints to encoded image bytes.
package cache

// Store is a fingerprint-to-bytes cache. Implementations must be safe for
// concurrent use. There is no single-flight: concurrent misses for the same
// fingerprint may each render and insert, last writer wins.
type Store interface {
	// Get returns the cached bytes for key, refreshing its idle clock.
	Get(key string) ([]byte, bool)
	// Set stores or replaces the entry for key, resetting its clocks.
	Set(key string, val []byte)
}

// Stats are point-in-time counters for the cache stats endpoint.
type Stats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}
