package correlation

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/go-znp/pkg/mt"
	"github.com/urmzd/go-znp/pkg/mt/command"
)

// oneShot is a single waitable slot, resolved at most once. resolve and
// cancel race on the same atomic flag so exactly one of them
// wins; the loser is a documented no-op, not an error.
type oneShot struct {
	result   chan command.Instance
	done     chan struct{}
	resolved atomic.Bool
}

func newOneShot() *oneShot {
	return &oneShot{
		result: make(chan command.Instance, 1),
		done:   make(chan struct{}),
	}
}

// resolve delivers inst to the waiter. It returns false if the listener
// had already resolved or been cancelled, in which case the match is
// silently ignored.
func (o *oneShot) resolve(inst command.Instance) bool {
	if !o.resolved.CompareAndSwap(false, true) {
		return false
	}
	o.result <- inst
	return true
}

// cancel unblocks a pending wait without delivering a result, used for
// transport loss, explicit Close, and self-inflicted timeout cleanup.
func (o *oneShot) cancel() bool {
	if !o.resolved.CompareAndSwap(false, true) {
		return false
	}
	close(o.done)
	return true
}

// wait blocks for a result, cancellation, or timeout, whichever comes
// first.
func (o *oneShot) wait(timeout time.Duration) (command.Instance, error) {
	select {
	case inst := <-o.result:
		return inst, nil
	case <-o.done:
		return command.Instance{}, ErrCancelled
	case <-time.After(timeout):
		o.cancel()
		return command.Instance{}, ErrTimeout
	}
}

// callbackListener is a persistent listener invoked on every match; it is
// never deregistered by matching, only discarded wholesale on transport
// loss or Close.
type callbackListener struct {
	fn func(command.Instance)
}

func (c *callbackListener) invoke(inst command.Instance) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("callback listener panicked, continuing dispatch")
		}
	}()
	c.fn(inst)
}

// entry is one registration under a single header: a dedup'd set of
// partial-instance patterns paired with exactly one of the two
// resolution kinds.
type entry struct {
	patterns []command.Instance
	oneShot  *oneShot
	cb       *callbackListener
}

func (e *entry) matchesAny(inst command.Instance) bool {
	for _, pattern := range e.patterns {
		if inst.Matches(pattern) {
			return true
		}
	}
	return false
}

// registry owns the header -> listener-entries map. Entries are added by
// add and dropped wholesale by cancelAll; entriesFor, called from Dispatch,
// prunes finished one-shot entries as it reads. A mutex guards it because
// add is called from arbitrary caller goroutines while Dispatch runs on the
// single decoder-driven dispatcher goroutine.
type registry struct {
	mu        sync.Mutex
	listeners map[mt.Header][]*entry
}

func newRegistry() *registry {
	return &registry{listeners: make(map[mt.Header][]*entry)}
}

func (r *registry) add(header mt.Header, e *entry) {
	e.patterns = dedupe(e.patterns)
	r.mu.Lock()
	r.listeners[header] = append(r.listeners[header], e)
	r.mu.Unlock()
}

// entriesFor returns a snapshot of the entries registered under header,
// pruning one-shot entries that have already resolved or been cancelled.
func (r *registry) entriesFor(header mt.Header) []*entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := r.listeners[header][:0]
	for _, e := range r.listeners[header] {
		if e.oneShot != nil && e.oneShot.resolved.Load() {
			continue
		}
		live = append(live, e)
	}
	r.listeners[header] = live

	out := make([]*entry, len(live))
	copy(out, live)
	return out
}

// cancelAll cancels every one-shot listener and drops every callback
// listener, as transport loss and Close require.
func (r *registry) cancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entries := range r.listeners {
		for _, e := range entries {
			if e.oneShot != nil {
				e.oneShot.cancel()
			}
		}
	}
	r.listeners = make(map[mt.Header][]*entry)
}

// dedupe reduces patterns to their maximal elements: a pattern that is a
// strict refinement of another (MoreSpecificThan) is redundant, because any
// command satisfying the narrower pattern already satisfies the broader
// one, so only the broader pattern needs to survive. Exact duplicates keep
// only the earliest occurrence.
func dedupe(patterns []command.Instance) []command.Instance {
	keep := make([]command.Instance, 0, len(patterns))
	for i, p := range patterns {
		redundant := false
		for j, other := range patterns {
			if i == j {
				continue
			}
			if p.Equal(other) {
				// Exact duplicates: keep only the first occurrence.
				if j < i {
					redundant = true
					break
				}
				continue
			}
			if p.MoreSpecificThan(other) {
				// other is strictly broader and already accepts everything p does.
				redundant = true
				break
			}
		}
		if !redundant {
			keep = append(keep, p)
		}
	}
	return keep
}
