// Package executor fans a probe out over a stream of units under a
// fixed concurrency ceiling. Output is completion-ordered: a hung unit
// never blocks reporting of units that finished. Failures are values on
// the completion, never panics across the package boundary.
package executor

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/hostscope/hostscope/pkg/defaults"
	"github.com/hostscope/hostscope/pkg/target"
)

// ProbeFunc checks one unit. Implementations own their timeouts; the
// executor imposes no per-unit deadline of its own.
type ProbeFunc[R any] func(ctx context.Context, unit target.Unit) (R, error)

// Completion pairs a unit with its outcome. Exactly one of Result and
// Err is meaningful.
type Completion[R any] struct {
	Unit   target.Unit
	Result R
	Err    error
}

// Options tunes a run.
type Options struct {
	// Concurrency is the ceiling on in-flight probes. Values < 1
	// mean 1.
	Concurrency int

	// Limiter optionally gates probe admission (probes per second).
	// Nil means unlimited.
	Limiter *rate.Limiter
}

// Run consumes units and applies probe to each under opts.Concurrency
// workers, streaming completions in the order probes finish. Expansion
// failures on the input stream pass straight through as failed
// completions. The returned channel closes when the input is exhausted
// or ctx is cancelled; cancellation is checked before each admission,
// in-flight probes are left to finish.
func Run[R any](ctx context.Context, units <-chan target.Item, probe ProbeFunc[R], opts Options) <-chan Completion[R] {
	workers := opts.Concurrency
	if workers < 1 {
		workers = 1
	}

	out := make(chan Completion[R], defaults.ChannelBuffer)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range units {
				select {
				case <-ctx.Done():
					return
				default:
				}

				if item.Err != nil {
					send(ctx, out, Completion[R]{Unit: item.Unit, Err: item.Err})
					continue
				}

				if opts.Limiter != nil {
					if err := opts.Limiter.Wait(ctx); err != nil {
						return
					}
				}

				result, err := invoke(ctx, probe, item.Unit)
				send(ctx, out, Completion[R]{Unit: item.Unit, Result: result, Err: err})
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// invoke isolates one probe call: a panic inside the probe becomes a
// failure for that unit only.
func invoke[R any](ctx context.Context, probe ProbeFunc[R], unit target.Unit) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panic on %s: %v", unit.Display(), r)
		}
	}()
	return probe(ctx, unit)
}

func send[R any](ctx context.Context, out chan<- Completion[R], c Completion[R]) {
	select {
	case out <- c:
	case <-ctx.Done():
	}
}
