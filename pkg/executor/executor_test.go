package executor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hostscope/hostscope/pkg/target"
)

func feed(items ...target.Item) <-chan target.Item {
	ch := make(chan target.Item, len(items))
	for _, item := range items {
		ch <- item
	}
	close(ch)
	return ch
}

func units(n int) []target.Item {
	items := make([]target.Item, n)
	for i := range items {
		items[i] = target.Item{Unit: target.Unit{Host: fmt.Sprintf("host-%d.test", i)}}
	}
	return items
}

func TestRun_AllSucceed(t *testing.T) {
	probe := func(_ context.Context, u target.Unit) (string, error) {
		return "ok:" + u.Host, nil
	}

	seen := 0
	for c := range Run(context.Background(), feed(units(50)...), probe, Options{Concurrency: 8}) {
		if c.Err != nil {
			t.Errorf("unexpected error for %s: %v", c.Unit.Host, c.Err)
		}
		if c.Result != "ok:"+c.Unit.Host {
			t.Errorf("result %q does not match unit %s", c.Result, c.Unit.Host)
		}
		seen++
	}
	if seen != 50 {
		t.Errorf("expected 50 completions, got %d", seen)
	}
}

// One failing unit must not affect any other unit, at any concurrency.
func TestRun_FailureIsolation(t *testing.T) {
	const n = 20
	boom := errors.New("boom")

	for _, workers := range []int{1, n, 2 * n} {
		t.Run(fmt.Sprintf("concurrency-%d", workers), func(t *testing.T) {
			probe := func(_ context.Context, u target.Unit) (int, error) {
				if u.Host == "host-7.test" {
					return 0, boom
				}
				return 1, nil
			}

			successes, failures := 0, 0
			for c := range Run(context.Background(), feed(units(n)...), probe, Options{Concurrency: workers}) {
				if c.Err != nil {
					failures++
					if !errors.Is(c.Err, boom) {
						t.Errorf("unexpected error: %v", c.Err)
					}
				} else {
					successes++
				}
			}
			if successes != n-1 || failures != 1 {
				t.Errorf("got %d successes, %d failures; want %d and 1", successes, failures, n-1)
			}
		})
	}
}

func TestRun_PanicBecomesFailure(t *testing.T) {
	probe := func(_ context.Context, u target.Unit) (int, error) {
		if u.Host == "host-3.test" {
			panic("probe exploded")
		}
		return 1, nil
	}

	completions := 0
	panics := 0
	for c := range Run(context.Background(), feed(units(6)...), probe, Options{Concurrency: 2}) {
		completions++
		if c.Err != nil {
			panics++
		}
	}
	if completions != 6 || panics != 1 {
		t.Errorf("got %d completions with %d failures, want 6 and 1", completions, panics)
	}
}

// The concurrency ceiling must never be exceeded, observed with an
// atomic in-flight counter inside the probe.
func TestRun_ConcurrencyCeiling(t *testing.T) {
	const workers = 4

	var active, peak int64
	probe := func(_ context.Context, _ target.Unit) (int, error) {
		cur := atomic.AddInt64(&active, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt64(&active, -1)
		return 0, nil
	}

	for range Run(context.Background(), feed(units(64)...), probe, Options{Concurrency: workers}) {
	}

	if p := atomic.LoadInt64(&peak); p > workers {
		t.Errorf("observed %d simultaneous probes, ceiling is %d", p, workers)
	}
}

// Completions stream in finish order: a stalled unit must not hold up
// the others.
func TestRun_CompletionOrder(t *testing.T) {
	release := make(chan struct{})
	probe := func(_ context.Context, u target.Unit) (int, error) {
		if u.Host == "host-0.test" {
			<-release
		}
		return 0, nil
	}

	out := Run(context.Background(), feed(units(5)...), probe, Options{Concurrency: 5})

	got := make(map[string]bool)
	for i := 0; i < 4; i++ {
		select {
		case c := <-out:
			got[c.Unit.Host] = true
		case <-time.After(5 * time.Second):
			t.Fatal("fast units blocked behind a stalled unit")
		}
	}
	if got["host-0.test"] {
		t.Error("stalled unit completed before being released")
	}

	close(release)
	c := <-out
	if c.Unit.Host != "host-0.test" {
		t.Errorf("expected the stalled unit last, got %s", c.Unit.Host)
	}
	if _, open := <-out; open {
		t.Error("channel should be closed after the final completion")
	}
}

// Expansion failures on the input stream pass through untouched, and
// never hit the probe.
func TestRun_ExpansionFailurePassthrough(t *testing.T) {
	expErr := errors.New("no such host")
	items := []target.Item{
		{Unit: target.Unit{Host: "good.test"}},
		{Unit: target.Unit{Parent: "bad.test"}, Err: expErr},
	}

	probe := func(_ context.Context, u target.Unit) (int, error) {
		if u.Host == "" {
			t.Errorf("probe invoked for failed expansion item")
		}
		return 1, nil
	}

	var failed *Completion[int]
	total := 0
	for c := range Run(context.Background(), feed(items...), probe, Options{Concurrency: 2}) {
		total++
		if c.Err != nil {
			cc := c
			failed = &cc
		}
	}
	if total != 2 {
		t.Fatalf("expected 2 completions, got %d", total)
	}
	if failed == nil || !errors.Is(failed.Err, expErr) {
		t.Errorf("expansion error not propagated: %+v", failed)
	}
}

func TestRun_RateLimiter(t *testing.T) {
	probe := func(_ context.Context, _ target.Unit) (int, error) { return 0, nil }

	start := time.Now()
	opts := Options{Concurrency: 4, Limiter: rate.NewLimiter(rate.Limit(100), 1)}
	n := 0
	for range Run(context.Background(), feed(units(10)...), probe, opts) {
		n++
	}
	if n != 10 {
		t.Fatalf("expected 10 completions, got %d", n)
	}
	// 10 probes at 100/s with burst 1 need at least ~90ms
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("rate limiter had no effect, run took %v", elapsed)
	}
}

func TestRun_CancelStopsAdmission(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var invoked int64
	probe := func(_ context.Context, _ target.Unit) (int, error) {
		atomic.AddInt64(&invoked, 1)
		return 0, nil
	}

	in := make(chan target.Item)
	out := Run(ctx, in, probe, Options{Concurrency: 1})

	in <- target.Item{Unit: target.Unit{Host: "first.test"}}
	<-out
	cancel()

	// The worker may or may not pick up one more item before it sees
	// the cancellation; what must hold is that the output closes.
	go func() {
		in <- target.Item{Unit: target.Unit{Host: "second.test"}}
		close(in)
	}()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, open := <-out:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("executor did not wind down after cancellation")
		}
	}
}
