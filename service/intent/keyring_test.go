package intent

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRing_RoundRobin(t *testing.T) {
	ring, err := NewKeyRing([]string{"k1", "k2", "k3"})
	require.NoError(t, err)
	require.Equal(t, 3, ring.Len())

	got := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		got = append(got, ring.Next())
	}
	assert.Equal(t, []string{"k1", "k2", "k3", "k1", "k2", "k3"}, got)
}

func TestKeyRing_DropsBlankKeys(t *testing.T) {
	ring, err := NewKeyRing([]string{" ", "k1", "", "k2 "})
	require.NoError(t, err)
	assert.Equal(t, 2, ring.Len())
	assert.Equal(t, "k1", ring.Next())
	assert.Equal(t, "k2", ring.Next())
}

func TestKeyRing_RequiresAKey(t *testing.T) {
	_, err := NewKeyRing(nil)
	assert.Error(t, err)

	_, err = NewKeyRing([]string{"", "  "})
	assert.Error(t, err)
}

func TestKeyRing_ConcurrentUse(t *testing.T) {
	ring, err := NewKeyRing([]string{"k1", "k2", "k3"})
	require.NoError(t, err)

	const calls = 300
	var wg sync.WaitGroup
	var mu sync.Mutex
	counts := make(map[string]int, 3)

	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k := ring.Next()
			mu.Lock()
			counts[k]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Every key is used the same number of times; the counter never skips.
	assert.Equal(t, calls/3, counts["k1"])
	assert.Equal(t, calls/3, counts["k2"])
	assert.Equal(t, calls/3, counts["k3"])
}
