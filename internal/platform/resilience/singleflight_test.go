package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_CollapsesConcurrentCalls(t *testing.T) {
	var g SingleFlight
	var executions atomic.Int32
	var shared atomic.Int32

	const callers = 16
	gate := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(callers)

	for range callers {
		go func() {
			defer wg.Done()
			<-gate
			val, err, dedup := g.Do("artifact:current", func() (any, error) {
				executions.Add(1)
				time.Sleep(25 * time.Millisecond)
				return 42, nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if val != 42 {
				t.Errorf("unexpected value: %v", val)
			}
			if dedup {
				shared.Add(1)
			}
		}()
	}

	close(gate)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("expected one execution, got %d", got)
	}
	if got := shared.Load(); got != callers-1 {
		t.Fatalf("expected %d deduplicated callers, got %d", callers-1, got)
	}
}

func TestSingleFlight_SequentialCallsRunFresh(t *testing.T) {
	var g SingleFlight
	wantErr := errors.New("load failed")

	_, err, dedup := g.Do("k", func() (any, error) { return nil, wantErr })
	if !errors.Is(err, wantErr) || dedup {
		t.Fatalf("first call: err=%v dedup=%t", err, dedup)
	}

	val, err, dedup := g.Do("k", func() (any, error) { return "fresh", nil })
	if err != nil || dedup {
		t.Fatalf("second call: err=%v dedup=%t", err, dedup)
	}
	if val != "fresh" {
		t.Fatalf("errored result leaked into later call: %v", val)
	}
}

func TestSingleFlight_KeysAreIndependent(t *testing.T) {
	var g SingleFlight
	var executions atomic.Int32

	var wg sync.WaitGroup
	for _, key := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = g.Do(key, func() (any, error) {
				executions.Add(1)
				time.Sleep(10 * time.Millisecond)
				return key, nil
			})
		}()
	}
	wg.Wait()

	if got := executions.Load(); got != 3 {
		t.Fatalf("expected one execution per key, got %d", got)
	}
}
