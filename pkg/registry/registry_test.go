package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry[int]()
	r.Register("b", 2)
	r.Register("a", 1)

	v, err := r.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	r.Register("a", 10)
	v, _ = r.Lookup("a")
	assert.Equal(t, 10, v)

	_, err = r.Lookup("c")
	assert.ErrorContains(t, err, `"c" not registered (known: [a b])`)
	assert.Equal(t, []string{"a", "b"}, r.Names())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry[string]()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := string(rune('a' + i))
			r.Register(name, name)
			_, _ = r.Lookup(name)
		}()
	}
	wg.Wait()
	assert.Len(t, r.Names(), 8)
}
