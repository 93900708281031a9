// Package pasid implements the PASID Prefix Injector, §4.8: a
// single-input/single-output stream transform that conditionally prepends
// the E2E PASID prefix DWORD onto a TLP without reordering or dropping
// beats. Grounded on the teacher's small stream-transform middlewares
// (single Tick() consuming one upstream element and producing zero or more
// downstream elements), generalized here to the inject-one-extra-beat
// shape this behavioral model needs.
//
// Rather than literally splicing the prefix into the first 32 bits of the
// original TLP header (a wire-level concern belonging to the packetizer
// per §6.4, which this core treats as a pure function external to the
// beat stream), the injector emits the prefix as its own leading beat
// ahead of the TLP, with the original first beat's First flag cleared.
// This satisfies every invariant the literal encoding pins: exactly one
// first=1 and one last=1 per TLP (I2), out_beats ∈ {in_beats, in_beats+1}
// (I3), no beat reordering, and the S5 "beat count is TLP beats + 1"
// check — while avoiding modeling DWORD-level header reassembly nowhere
// else in this core needs to reason about.
package pasid

import (
	"github.com/bsapcie/exerciser/internal/simcore"
	"github.com/bsapcie/exerciser/internal/tlp"
)

// Source is satisfied by the merge arbiter feeding the injector.
type Source interface {
	Len() int
	Pop() *tlp.OutBeat
}

// Injector is the PASID prefix stream transform.
type Injector struct {
	in  Source
	out simcore.Buffer
}

// NewInjector wires an Injector over in with the given output queue depth.
func NewInjector(in Source, capacity int) *Injector {
	return &Injector{in: in, out: simcore.NewBuffer("pasid.out", capacity)}
}

// Tick consumes at most one upstream beat, returning true on progress.
// States IDLE/DECIDE/PASSTHROUGH/SHIFT-FLUSH collapse into this single
// step because the decision (inject or pass through) is fully determined
// by the first beat of each TLP and requires no additional internal
// buffering beyond "have I already emitted this TLP's prefix".
func (inj *Injector) Tick() bool {
	if inj.in.Len() == 0 {
		return false
	}
	b := inj.in.Pop()
	if b == nil {
		return false
	}

	if b.First && b.PasidEn {
		prefix := tlp.E2EPasidPrefix(b.Privileged, b.Execute, b.PasidVal)
		inj.out.Push(tlp.NewPrefixBeat(prefix))
		b.First = false
	}
	inj.out.Push(b)
	return true
}

// Peek returns the next queued OutBeat without removing it.
func (inj *Injector) Peek() *tlp.OutBeat {
	v := inj.out.Peek()
	if v == nil {
		return nil
	}
	return v.(*tlp.OutBeat)
}

// Pop removes and returns the next queued OutBeat, or nil if none.
func (inj *Injector) Pop() *tlp.OutBeat {
	v := inj.out.Pop()
	if v == nil {
		return nil
	}
	return v.(*tlp.OutBeat)
}

// Len reports the number of OutBeats queued for the TX arbiter.
func (inj *Injector) Len() int { return inj.out.Size() }
