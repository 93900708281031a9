package bar

import (
	"github.com/bsapcie/exerciser/internal/simcore"
	"github.com/bsapcie/exerciser/internal/tlp"
)

// CompletionArbiter collects completions emitted by the BAR handlers and
// exposes them as one ordered OutBeat stream, §2. Because the Dispatcher
// only ever processes one TLP to completion before starting the next
// (§4.1), the handlers themselves never contend for this sink — the
// arbiter's job is solely to adapt CompletionBeat into the OutBeat shape
// the downstream merge point (feeding PASIDInjector) understands.
type CompletionArbiter struct {
	out simcore.Buffer
}

// NewCompletionArbiter creates a CompletionArbiter with the given outbound
// queue depth.
func NewCompletionArbiter(capacity int) *CompletionArbiter {
	return &CompletionArbiter{out: simcore.NewBuffer("bar.completions", capacity)}
}

// Push enqueues one completion beat, wrapping it as an OutBeat.
func (a *CompletionArbiter) Push(c *tlp.CompletionBeat) {
	a.out.Push(tlp.FromCompletion(c))
}

// Pop dequeues the next OutBeat, or nil if none is pending.
func (a *CompletionArbiter) Pop() *tlp.OutBeat {
	m := a.out.Pop()
	if m == nil {
		return nil
	}
	return m.(*tlp.OutBeat)
}

// Peek returns the next OutBeat without removing it, or nil if none is
// pending.
func (a *CompletionArbiter) Peek() *tlp.OutBeat {
	m := a.out.Peek()
	if m == nil {
		return nil
	}
	return m.(*tlp.OutBeat)
}

// Len reports the number of OutBeats currently queued.
func (a *CompletionArbiter) Len() int { return a.out.Size() }
