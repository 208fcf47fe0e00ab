package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrClosed is returned by a cache that has been closed.
	ErrClosed = errors.New("cache is closed")
)

// Config holds the disk cache settings.
type Config struct {
	Dir              string
	Capacity         int64 // bytes
	CompressionLevel int   // zstd level, 0 disables compression
}

// DefaultConfig returns a 64 MB cache with balanced compression rooted at
// dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:              dir,
		Capacity:         64 * 1024 * 1024,
		CompressionLevel: 3,
	}
}

// Stats holds cache counters.
type Stats struct {
	Capacity  int64
	Size      int64
	Items     int
	Hits      int64
	Misses    int64
	Evictions int64
	LastEvict time.Time
}

// HitRate returns hits / (hits + misses), or 0 with no lookups.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

func (s Stats) String() string {
	return fmt.Sprintf("%d items, %s of %s, %.0f%% hits",
		s.Items,
		humanize.Bytes(uint64(s.Size)),
		humanize.Bytes(uint64(s.Capacity)),
		s.HitRate()*100)
}

// Key builds the cache key for text spoken with the given voice.
func Key(voice, text string) string {
	h := sha256.New()
	h.Write([]byte(voice))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
