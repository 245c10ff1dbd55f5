package emit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}

	a := g.Generate()
	b := g.Generate()

	assert.Len(t, a, 32)
	assert.NotContains(t, a, "-")
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b, "tokens sort by creation time")
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("t1", "t2")

	assert.Equal(t, "t1", g.Generate())
	assert.Equal(t, "t2", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestSequenceGenerator_Concurrent(t *testing.T) {
	g := &SequenceGenerator{}

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok := g.Generate()
			mu.Lock()
			seen[tok] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, 50)
	assert.True(t, seen["1"])
	assert.True(t, seen["50"])
}
