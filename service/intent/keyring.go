package intent

import (
	"errors"
	"strings"
	"sync/atomic"
)

// KeyRing hands out API credentials round-robin. Safe for concurrent use;
// rotation is a single atomic increment.
type KeyRing struct {
	keys []string
	next atomic.Uint64
}

// NewKeyRing builds a ring over the given keys, dropping blanks.
func NewKeyRing(keys []string) (*KeyRing, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("key ring requires at least one key")
	}
	return &KeyRing{keys: cleaned}, nil
}

// Next returns the next key in rotation.
func (r *KeyRing) Next() string {
	n := r.next.Add(1) - 1
	return r.keys[n%uint64(len(r.keys))]
}

// Len returns the number of keys in the ring.
func (r *KeyRing) Len() int {
	return len(r.keys)
}
