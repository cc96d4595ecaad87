package guard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoMutates(t *testing.T) {
	t.Parallel()

	g := New(map[string]int{}, func(m *map[string]int) { *m = map[string]int{} })
	g.Do(func(m *map[string]int) { (*m)["a"] = 1 })

	var got int
	g.Do(func(m *map[string]int) { got = (*m)["a"] })
	assert.Equal(t, 1, got)
	assert.False(t, g.Poisoned())
}

func TestPanicPoisonsAndNextHolderResets(t *testing.T) {
	t.Parallel()

	g := New(map[string]int{"keep": 1}, func(m *map[string]int) { *m = map[string]int{} })

	func() {
		defer func() {
			require.NotNil(t, recover())
		}()
		g.Do(func(m *map[string]int) {
			(*m)["half"] = 1
			panic("worker failed")
		})
	}()

	assert.True(t, g.Poisoned())

	var size int
	g.Do(func(m *map[string]int) { size = len(*m) })
	assert.Equal(t, 0, size, "poisoned value should be reset to empty")
	assert.False(t, g.Poisoned())
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	g := New(0, func(n *int) { *n = 0 })
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Do(func(n *int) { *n++ })
		}()
	}
	wg.Wait()

	var n int
	g.Do(func(v *int) { n = *v })
	assert.Equal(t, 50, n)
}
