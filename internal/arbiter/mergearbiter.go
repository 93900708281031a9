package arbiter

import (
	"github.com/bsapcie/exerciser/internal/simcore"
	"github.com/bsapcie/exerciser/internal/tlp"
)

// outBeatSource is satisfied by anything that queues OutBeats for the next
// stage: bar.CompletionArbiter and MasterArbiter both qualify, letting
// MergeArbiter and PASIDInjector stay decoupled from those packages.
type outBeatSource interface {
	Len() int
	Pop() *tlp.OutBeat
}

// MergeArbiter combines the per-BAR-handler completion stream and the
// master-issued request stream into the single ordered stream §4.8's
// PASIDInjector expects as its one input. §2's diagram does not name this
// component explicitly; it falls out of PASIDInjector being described as
// single-input while both CompletionArbiter and MasterArbiter feed it
// (§4.4's note that DMA-issued requests carry PASID fields "for the
// injector to consume", confirmed by scenario S5). Completions are given
// priority when both are ready, since a host awaiting a completion is more
// latency-sensitive than a newly issued master request; grants hold for a
// full TLP exactly like MasterArbiter.
type MergeArbiter struct {
	completions outBeatSource
	requests    outBeatSource
	current     outBeatSource
	out         simcore.Buffer
}

// NewMergeArbiter wires a MergeArbiter over the completion and request
// sources with the given output queue depth.
func NewMergeArbiter(capacity int, completions, requests outBeatSource) *MergeArbiter {
	return &MergeArbiter{
		completions: completions,
		requests:    requests,
		out:         simcore.NewBuffer("arbiter.merge.out", capacity),
	}
}

// Tick forwards at most one beat, returning true on progress.
func (g *MergeArbiter) Tick() bool {
	if g.current == nil {
		switch {
		case g.completions.Len() > 0:
			g.current = g.completions
		case g.requests.Len() > 0:
			g.current = g.requests
		default:
			return false
		}
	}
	b := g.current.Pop()
	if b == nil {
		g.current = nil
		return false
	}
	g.out.Push(b)
	if b.Last {
		g.current = nil
	}
	return true
}

// Peek returns the next queued OutBeat without removing it.
func (g *MergeArbiter) Peek() *tlp.OutBeat {
	v := g.out.Peek()
	if v == nil {
		return nil
	}
	return v.(*tlp.OutBeat)
}

// Pop removes and returns the next queued OutBeat, or nil if none.
func (g *MergeArbiter) Pop() *tlp.OutBeat {
	v := g.out.Pop()
	if v == nil {
		return nil
	}
	return v.(*tlp.OutBeat)
}

// Len reports the number of OutBeats queued for the PASID injector.
func (g *MergeArbiter) Len() int { return g.out.Size() }
