package arbiter

import (
	"github.com/bsapcie/exerciser/internal/simcore"
	"github.com/bsapcie/exerciser/internal/tlp"
)

// TxArbiter merges the PASID injector's main-path output with one or more
// raw TX sources (currently only ATSInvalidationHandler's invalidation
// completion messages) onto the single TX stream, §4.9. Raw sources may
// only preempt between TLPs on the main path; within raw sources,
// first-come wins, which falls out for free by having every raw source
// push into the same FIFO.
type TxArbiter struct {
	main outBeatSource
	raw  simcore.Buffer

	mainMidPacket bool
	out           simcore.Buffer
}

// NewTxArbiter wires a TxArbiter over the injector's output with the given
// raw-source and output queue depths.
func NewTxArbiter(main outBeatSource, rawCapacity, outCapacity int) *TxArbiter {
	return &TxArbiter{
		main: main,
		raw:  simcore.NewBuffer("arbiter.tx.raw", rawCapacity),
		out:  simcore.NewBuffer("arbiter.tx.out", outCapacity),
	}
}

// RawInput exposes the raw-TX-source buffer for collaborators (the ATS
// invalidation handler) to push directly into.
func (a *TxArbiter) RawInput() simcore.Buffer { return a.raw }

// Tick forwards at most one beat, returning true on progress.
func (a *TxArbiter) Tick() bool {
	if a.mainMidPacket {
		b := a.main.Pop()
		if b == nil {
			return false
		}
		a.out.Push(b)
		if b.Last {
			a.mainMidPacket = false
		}
		return true
	}

	if a.raw.Size() > 0 {
		m := a.raw.Pop()
		a.out.Push(m.(*tlp.OutBeat))
		return true
	}

	if a.main.Len() > 0 {
		b := a.main.Pop()
		a.out.Push(b)
		if b.First && !b.Last {
			a.mainMidPacket = true
		}
		return true
	}

	return false
}

// Peek returns the next queued TX OutBeat without removing it.
func (a *TxArbiter) Peek() *tlp.OutBeat {
	v := a.out.Peek()
	if v == nil {
		return nil
	}
	return v.(*tlp.OutBeat)
}

// Pop removes and returns the next queued TX OutBeat, or nil if none.
func (a *TxArbiter) Pop() *tlp.OutBeat {
	v := a.out.Pop()
	if v == nil {
		return nil
	}
	return v.(*tlp.OutBeat)
}

// Len reports the number of OutBeats queued on the TX stream.
func (a *TxArbiter) Len() int { return a.out.Size() }
