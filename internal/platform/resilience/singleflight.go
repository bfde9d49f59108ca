package resilience

import "sync"

// SingleFlight collapses concurrent calls that share a key into one
// execution. Latecomers block until the leader finishes and receive
// its result.
type SingleFlight struct {
	mu     sync.Mutex
	flight map[string]*flight
}

type flight struct {
	done chan struct{}
	val  any
	err  error
}

// Do runs fn once per key at a time. The bool reports whether the
// result came from another caller's in-progress execution.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	g.mu.Lock()
	if g.flight == nil {
		g.flight = make(map[string]*flight)
	}
	if f, ok := g.flight[key]; ok {
		g.mu.Unlock()
		<-f.done
		return f.val, f.err, true
	}

	f := &flight{done: make(chan struct{})}
	g.flight[key] = f
	g.mu.Unlock()

	f.val, f.err = fn()

	g.mu.Lock()
	delete(g.flight, key)
	g.mu.Unlock()
	close(f.done)

	return f.val, f.err, false
}
