package inbox

import (
	"context"
	"sync"
)

// inFlightGuard ensures only one goroutine handles a given file at a time.
type inFlightGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock marks path as in flight. Returns false if it already is.
func (g *inFlightGuard) TryLock(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[path]; ok {
		return false
	}
	g.running[path] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases path. Must be called after TryLock returns true.
func (g *inFlightGuard) Unlock(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, path)
	g.wg.Done()
}

// WaitAll blocks until every in-flight file is done or ctx is cancelled.
func (g *inFlightGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
