// Package monitor implements the transaction monitor, §4.10 and §6.2: a
// lossy, fixed-depth tap on the inbound request stream that serializes
// accepted beats into 5-DWORD records and drains them through TXN_TRACE.
package monitor

import "github.com/bsapcie/exerciser/internal/tlp"

// Depth is the FIFO capacity in records, §4.10.
const Depth = 32

// Record is one 5-DWORD transaction record, §6.2.
type Record [5]uint32

// Size one-hot bits for W0[31:16], §6.2: bit N set means 2^N bytes.
func sizeOneHot(lenDW int) uint16 {
	bytes := lenDW * 4
	for n := 0; n < 16; n++ {
		if 1<<n == bytes {
			return uint16(1 << n)
		}
	}
	return 0
}

// BuildRecord packs a beat's observable fields into a Record per §6.2: W0
// TX_ATTRIBUTES ([0] cfg-type, [1] R/W, [2] cfg/mem, [31:16] size one-hot),
// W1/W2 address, W3/W4 data.
func BuildRecord(b *tlp.RequestBeat) Record {
	var w0 uint32
	if b.We {
		w0 |= 1 << 1
	}
	w0 |= 1 << 2 // mem, never cfg in this core's scope
	w0 |= uint32(sizeOneHot(b.LenDW())) << 16

	return Record{
		w0,
		uint32(b.Adr),
		uint32(b.Adr >> 32),
		b.Dat,
		0,
	}
}

// Monitor is a lossy, fixed-depth capture FIFO, §4.10.
type Monitor struct {
	fifo     []Record
	overflow bool
	enabled  bool
	drainPos int

	sink func(Record)
}

// SetSink registers a callback invoked with every record as it is captured,
// independent of the host's TXN_TRACE drain. internal/tracesink uses this to
// mirror the live trace into SQLite without disturbing the FIFO semantics
// §4.10 pins for the register-facing drain path.
func (m *Monitor) SetSink(f func(Record)) { m.sink = f }

// New returns an empty, disabled Monitor.
func New() *Monitor {
	return &Monitor{}
}

// SetEnabled gates capture, TXN_CTRL[0].
func (m *Monitor) SetEnabled(v bool) { m.enabled = v }

// Observe captures beat's record if the monitor is enabled and the beat is
// not itself a write to TXN_CTRL (original_source/.../txn_monitor.py
// excludes the monitor's own drain/control writes from capture so the
// trace is not polluted by the commands used to read it; see DESIGN.md).
// On overflow the newest beat is dropped and the sticky flag is set, §4.10.
func (m *Monitor) Observe(b *tlp.RequestBeat, isTxnCtrlWrite bool) {
	if !m.enabled || isTxnCtrlWrite {
		return
	}
	if len(m.fifo) >= Depth {
		m.overflow = true
		return
	}
	rec := BuildRecord(b)
	m.fifo = append(m.fifo, rec)
	if m.sink != nil {
		m.sink(rec)
	}
}

// Overflow reports the sticky overflow flag, TXN_CTRL[2].
func (m *Monitor) Overflow() bool { return m.overflow }

// Clear drains the FIFO and clears the overflow flag, implementing the
// idempotent-clear contract pinned by R3: a second consecutive clear is a
// no-op because the FIFO is already empty.
func (m *Monitor) Clear() {
	m.fifo = nil
	m.overflow = false
	m.drainPos = 0
}

// ReadNextDWord services one TXN_TRACE read: five consecutive reads drain
// one record, in order; 0xFFFFFFFF is returned once the FIFO is fully
// drained, per §4.10. Reads are consuming — the monitor is a lazy,
// non-restartable sequence (spec.md §9 DESIGN NOTES); peeking is not
// supported.
func (m *Monitor) ReadNextDWord() uint32 {
	if len(m.fifo) == 0 {
		return 0xFFFFFFFF
	}
	word := m.fifo[0][m.drainPos]
	m.drainPos++
	if m.drainPos == 5 {
		m.fifo = m.fifo[1:]
		m.drainPos = 0
	}
	return word
}

// Len reports the number of fully buffered (undrained) records, for tests.
func (m *Monitor) Len() int { return len(m.fifo) }
