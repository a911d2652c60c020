package relay

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounterInc(t *testing.T) {
	c := NewCounter()
	require.EqualValues(t, 1, c.Inc("d:1:2"))
	require.EqualValues(t, 2, c.Inc("d:1:2"))
	require.EqualValues(t, 1, c.Inc("r:9"))
	require.EqualValues(t, 2, c.Get("d:1:2"))
	require.EqualValues(t, 0, c.Get("d:3:4"))
}

// Concurrent increments on the same key must hand out every value exactly
// once, so a periodicity check on the returned value fires exactly once
// per true multiple.
func TestCounterConcurrentIncrementsAreLinearized(t *testing.T) {
	const (
		goroutines = 8
		perG       = 250
	)
	c := NewCounter()

	var mu sync.Mutex
	seen := make(map[int64]int)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				n := c.Inc("d:1:2")
				mu.Lock()
				seen[n]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	total := int64(goroutines * perG)
	require.Len(t, seen, int(total))
	for v := int64(1); v <= total; v++ {
		require.Equal(t, 1, seen[v], "value %d observed wrong number of times", v)
	}

	// Exactly one observer trigger per true multiple of the period.
	const period = 6
	fires := 0
	for v := range seen {
		if v%period == 0 {
			fires++
		}
	}
	require.EqualValues(t, total/period, fires)
}
