package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"catalog/internal/etl"
)

// importGuard keeps at most one import per source file in flight. A dry run
// and a committing run of the same file share a slot: both read the same
// rows and probe the same product codes.
type importGuard struct {
	mu      sync.Mutex
	running map[string]etl.RunConfig
	wg      sync.WaitGroup
}

// acquire claims the slot for rc's file. The returned func releases it.
func (g *importGuard) acquire(rc etl.RunConfig) (release func(), err error) {
	key := fileKey(rc.FilePath)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]etl.RunConfig)
	}
	if _, ok := g.running[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, rc.FilePath)
	}
	g.running[key] = rc
	g.wg.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, key)
			g.mu.Unlock()
			g.wg.Done()
		})
	}, nil
}

// inFlight lists the imports currently running, ordered by file.
func (g *importGuard) inFlight() []etl.RunConfig {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]etl.RunConfig, 0, len(g.running))
	for _, rc := range g.running {
		out = append(out, rc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FilePath < out[j].FilePath })
	return out
}

// wait blocks until every running import has released its slot or ctx is
// cancelled.
func (g *importGuard) wait(ctx context.Context) {
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

// fileKey makes relative and absolute spellings of a path share a slot.
func fileKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
