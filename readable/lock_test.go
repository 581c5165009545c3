package readable

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLibraryLockBalanced verifies that every library lock acquisition is
// paired with a release and that holds never nest, across open, reads, and
// close on multiple catalogs.
func TestLibraryLockBalanced(t *testing.T) {
	path := buildContainer(t)

	var mu sync.Mutex
	depth := 0
	maxDepth := 0
	events := 0
	libLockHook = func(event string) {
		mu.Lock()
		defer mu.Unlock()
		events++
		switch event {
		case "acquire":
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case "release":
			depth--
		}
	}
	defer func() { libLockHook = nil }()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cat, err := Open(context.Background(), path)
			if !assert.NoError(t, err) {
				return
			}
			defer cat.Close()

			for j := 0; j < 5; j++ {
				_, err := cat.ReadAt("/counts", nil, nil)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, depth, "unbalanced lock events")
	assert.Equal(t, 1, maxDepth, "library lock held concurrently")
	assert.Greater(t, events, 0)
}

// TestCatalogConcurrentReads hammers one catalog from several goroutines;
// the per-catalog mutex must keep results consistent.
func TestCatalogConcurrentReads(t *testing.T) {
	cat := openFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				v, err := cat.ReadAt("/temperature", nil, nil)
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, []float64{1.5, 2.5, 3.5, 4.5, 5.5, 6.5}, v.Data())
			}
		}()
	}
	wg.Wait()
}
