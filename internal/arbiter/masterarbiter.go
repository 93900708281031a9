// Package arbiter implements the Master (outbound request) Arbiter of
// §4.7, the merge point feeding the PASID injector that §2's diagram
// implies but does not name, and the TX Arbiter of §4.9. The round-robin
// grant-at-TLP-boundary discipline is grounded on the teacher's port
// arbitration in mem/idealmemcontroller, generalized here from a fixed
// two-way split to an arbitrary set of masters.
package arbiter

import (
	"github.com/bsapcie/exerciser/internal/simcore"
	"github.com/bsapcie/exerciser/internal/tlp"
)

// RequestSource is one master competing for the outbound request stream:
// DMAEngine, MSIXController, or ATSEngine.
type RequestSource interface {
	Name() string
	Pending() bool
	PopBeat() *tlp.RequestBeat
}

// MasterArbiter round-robins between RequestSources, granting at TLP
// boundaries, §4.7. Starting the search immediately after the last granted
// index bounds the wait of any pending master to one full round, satisfying
// I7.
type MasterArbiter struct {
	sources     []RequestSource
	current     RequestSource
	lastGranted int
	out         simcore.Buffer
}

// NewMasterArbiter wires a MasterArbiter over sources with the given
// output queue depth.
func NewMasterArbiter(capacity int, sources ...RequestSource) *MasterArbiter {
	return &MasterArbiter{
		sources:     sources,
		lastGranted: -1,
		out:         simcore.NewBuffer("arbiter.master.out", capacity),
	}
}

// Tick grants and forwards at most one beat, returning true on progress.
func (m *MasterArbiter) Tick() bool {
	if m.current == nil {
		m.current = m.selectNext()
		if m.current == nil {
			return false
		}
	}
	if !m.current.Pending() {
		m.current = nil
		return false
	}
	b := m.current.PopBeat()
	if b == nil {
		return false
	}
	m.out.Push(tlp.FromRequest(b))
	if b.Last {
		m.current = nil
	}
	return true
}

func (m *MasterArbiter) selectNext() RequestSource {
	n := len(m.sources)
	for i := 1; i <= n; i++ {
		idx := (m.lastGranted + i) % n
		if m.sources[idx].Pending() {
			m.lastGranted = idx
			return m.sources[idx]
		}
	}
	return nil
}

// Peek returns the next queued OutBeat without removing it.
func (m *MasterArbiter) Peek() *tlp.OutBeat {
	v := m.out.Peek()
	if v == nil {
		return nil
	}
	return v.(*tlp.OutBeat)
}

// Pop removes and returns the next queued OutBeat, or nil if none.
func (m *MasterArbiter) Pop() *tlp.OutBeat {
	v := m.out.Pop()
	if v == nil {
		return nil
	}
	return v.(*tlp.OutBeat)
}

// Len reports the number of OutBeats queued for the merge arbiter.
func (m *MasterArbiter) Len() int { return m.out.Size() }
