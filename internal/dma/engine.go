// Package dma implements the DMA Engine, §4.4: the most intricate
// component in the core, a register-triggered generator of chunked Memory
// Read / Memory Write TLPs with ATC-aware effective addressing, completion
// matching by tag, and a read-completion timeout. Grounded on the
// trigger-latch-then-run shape shared with msixctl and ats, scaled up to
// this component's chunking and completion-tracking requirements.
package dma

import (
	"github.com/bsapcie/exerciser/internal/atc"
	"github.com/bsapcie/exerciser/internal/dmabuffer"
	"github.com/bsapcie/exerciser/internal/regs"
	"github.com/bsapcie/exerciser/internal/simcore"
	"github.com/bsapcie/exerciser/internal/tlp"
)

type state int

const (
	stateIdle state = iota
	// stateRunning collapses ISSUE_RD/WAIT_CPL and LOAD_DATA/ISSUE_WR; the
	// chunk/completion bookkeeping below tracks exactly where the transfer
	// is without needing separate FSM states for it. COMPLETE is not a
	// distinct state either: complete() reports the outcome and returns to
	// IDLE within the same step that decided the transfer was done.
	stateRunning
)

// Status codes mirrored from regs for readability at call sites.
const (
	StatusOK       = regs.DMAStatusOK
	StatusRange    = regs.DMAStatusRange
	StatusInternal = regs.DMAStatusInternal
)

// dwordAlignMask is the granularity tickIdle validates curBusAddr against
// before chunking, §4.4: every chunk this engine builds starts on a DWORD
// boundary, so a bus_addr with non-zero bits below it is a Range error.
const dwordAlignMask = 0x3

type pendingRead struct {
	bufOffset uint32
	ticksWaited int
}

// Engine is the DMA Engine FSM.
type Engine struct {
	regFile *regs.RegisterFile
	buf     *dmabuffer.DMABuffer
	atcache *atc.ATC

	endpointID  func() uint16
	timeoutTicks int

	state state

	// latched at trigger time, §4.4.
	direction  uint8
	noSnoop    bool
	pasidEn    bool
	privileged bool
	execute    bool
	useATC     bool
	addrType   uint8
	pasidVal   uint32
	ridOverride uint16
	ridValid   bool

	lengthRemaining uint32
	curBusAddr      uint64
	curBufOffset    uint32

	mps  uint32
	mrrs uint32

	outQueue simcore.Buffer // pre-built request beats awaiting grant
	nextTag  uint8
	pending  map[uint8]*pendingRead

	failed bool
}

// NewEngine wires an Engine to its register file, DMA buffer, ATC, and the
// endpoint-identity collaborator (§6.4). timeoutTicks bounds an outstanding
// read completion per the model-defined tick count §4.4/§5.
func NewEngine(regFile *regs.RegisterFile, buf *dmabuffer.DMABuffer, atcache *atc.ATC, endpointID func() uint16, timeoutTicks int) *Engine {
	return &Engine{
		regFile:      regFile,
		buf:          buf,
		atcache:      atcache,
		endpointID:   endpointID,
		timeoutTicks: timeoutTicks,
		outQueue:     simcore.NewBuffer("dma.out", 0),
		pending:      map[uint8]*pendingRead{},
	}
}

// Name satisfies arbiter.RequestSource.
func (e *Engine) Name() string { return "dma" }

// Pending reports whether a request beat is staged and ready for grant.
func (e *Engine) Pending() bool { return e.outQueue.Size() > 0 }

// PopBeat hands the next staged request beat to the master arbiter.
func (e *Engine) PopBeat() *tlp.RequestBeat {
	v := e.outQueue.Pop()
	if v == nil {
		return nil
	}
	return v.(*tlp.RequestBeat)
}

// Busy reports whether the engine is mid-transfer, used by
// ATSInvalidationHandler's CHECK state (§4.6) to decide WAIT_DMA.
func (e *Engine) Busy() bool { return e.state != stateIdle }

// UsesATC reports whether the in-flight transfer (if any) was triggered
// with use_atc=1, used by the same CHECK state.
func (e *Engine) UsesATC() bool { return e.state != stateIdle && e.useATC }

// Tick advances the FSM by one internal step, returning true on progress.
func (e *Engine) Tick() bool {
	switch e.state {
	case stateIdle:
		return e.tickIdle()
	case stateRunning:
		return e.tickRunning()
	}
	return false
}

// complete reports the latched outcome through DMASTATUS and returns the
// engine to IDLE, collapsing the COMPLETE state into the same step that
// decided the transfer was done — nothing downstream needs a separate
// observable COMPLETE tick.
func (e *Engine) complete() {
	status := uint8(StatusOK)
	if e.failed {
		status = StatusInternal
	}
	e.regFile.SetDMAStatus(status)
	e.state = stateIdle
}

func (e *Engine) tickIdle() bool {
	f := e.regFile.DMACtl()
	if !f.Trigger {
		return false
	}
	e.regFile.ClearDMATrigger()

	e.direction = f.Direction
	e.noSnoop = f.NoSnoop
	e.pasidEn = f.PasidEn
	e.privileged = f.Privileged
	e.execute = f.Instr
	e.useATC = f.UseATC
	e.addrType = f.AddrType
	e.pasidVal = e.regFile.PasidValVal()
	e.ridOverride, e.ridValid = e.regFile.RIDOverride()
	e.curBusAddr = e.regFile.DMABusAddr()
	e.curBufOffset = e.regFile.DMAOffsetVal()
	e.lengthRemaining = e.regFile.DMALenVal()
	e.failed = false
	e.pending = map[uint8]*pendingRead{}

	// The link's sizes are the ones last installed by SetLinkSizes
	// (internal/core calls it once, from New); they are not re-read from
	// the configuration-space collaborator here. An unset size is 256.
	if e.mps == 0 {
		e.mps = 256
	}
	if e.mrrs == 0 {
		e.mrrs = 256
	}

	if e.useATC && e.addrType == regs.AddrTypeTranslated {
		e.failed = true
		e.complete()
		return true
	}
	if uint64(e.curBufOffset)+uint64(e.lengthRemaining) > uint64(e.buf.Size()) {
		e.regFile.SetDMAStatus(StatusRange)
		e.state = stateIdle
		return true
	}
	if e.curBusAddr&dwordAlignMask != 0 {
		// bus_addr carries non-zero bits below the DWORD boundary every
		// beat beyond the first is built on (§4.4); beMasks only ever
		// covers a trailing partial DWORD, never a leading one, so such
		// an address cannot be encoded by first_be/last_be.
		e.regFile.SetDMAStatus(StatusRange)
		e.state = stateIdle
		return true
	}
	if e.lengthRemaining == 0 {
		// B1: empty transfer, immediate COMPLETE, status OK.
		e.regFile.SetDMAStatus(StatusOK)
		e.state = stateIdle
		return true
	}

	e.state = stateRunning
	if e.direction == regs.DMADirWriteToHost {
		e.buildWriteChunks()
	} else {
		e.buildReadChunks()
	}
	return true
}

// SetLinkSizes installs max_payload_size / max_request_size; every later
// trigger uses these values until the next call.
func (e *Engine) SetLinkSizes(mps, mrrs uint32) {
	e.mps, e.mrrs = mps, mrrs
}

func (e *Engine) reqID() uint16 {
	if e.ridValid {
		return e.ridOverride
	}
	return e.endpointID()
}

func (e *Engine) effectiveAddr(busAddr uint64) uint64 {
	if !e.useATC {
		return busAddr
	}
	res := e.atcache.Lookup(busAddr, e.pasidEn, e.pasidVal)
	if res.Hit {
		return res.Output
	}
	return busAddr
}

// buildWriteChunks pre-stages every beat of the exerciser→host write
// transfer, chunked at max_payload_size boundaries (§4.4). Writes are
// posted, so the whole transfer can be queued up front; ordering
// guarantee #2 (§5) falls out of FIFO queue order.
func (e *Engine) buildWriteChunks() {
	remaining := e.lengthRemaining
	busAddr := e.curBusAddr
	bufOffset := e.curBufOffset

	for remaining > 0 {
		chunk := remaining
		if chunk > e.mps {
			chunk = e.mps
		}
		data, ok := e.buf.ReadRange(bufOffset, chunk)
		if !ok {
			e.failed = true
			break
		}
		e.queueDataBeats(busAddr, data)
		busAddr += uint64(chunk)
		bufOffset += chunk
		remaining -= chunk
	}
	e.lengthRemaining = 0
	e.curBusAddr = busAddr
	e.curBufOffset = bufOffset
}

func (e *Engine) queueDataBeats(adr uint64, data []byte) {
	lenDW := (len(data) + 3) / 4
	firstBE, lastBE := beMasks(len(data))
	for i := 0; i < lenDW; i++ {
		var dw uint32
		for j := 0; j < 4; j++ {
			idx := i*4 + j
			if idx < len(data) {
				dw |= uint32(data[idx]) << (8 * j)
			}
		}
		e.outQueue.Push(&tlp.RequestBeat{
			We:         true,
			Adr:        e.effectiveAddr(adr),
			Len:        tlp.EncodeLenField(lenDW),
			Tag:        e.nextTag,
			ReqID:      e.reqID(),
			FirstBE:    firstBE,
			LastBE:     lastBE,
			Dat:        dw,
			BE:         0xF,
			Attr:       e.attr(),
			At:         tlp.AddrType(e.addrType),
			PasidEn:    e.pasidEn,
			PasidVal:   e.pasidVal,
			Privileged: e.privileged,
			Execute:    e.execute,
			First:      i == 0,
			Last:       i == lenDW-1,
		})
	}
	e.nextTag++
}

// beMasks computes first_be/last_be for a chunk of byteLen bytes starting
// on a DWORD boundary. A partial final DWORD enables only its low
// remainder bytes; tickIdle rejects any curBusAddr that isn't DWORD-aligned
// before chunking begins, so every chunk reaching this function starts
// dword-aligned and first_be is always full.
func beMasks(byteLen int) (firstBE, lastBE uint8) {
	firstBE = 0xF
	rem := byteLen % 4
	if rem == 0 {
		lastBE = 0xF
	} else {
		lastBE = uint8(1<<uint(rem) - 1)
	}
	return
}

func (e *Engine) attr() uint8 {
	var a uint8
	if e.noSnoop {
		a |= tlp.AttrNoSnoop
	}
	return a
}

// buildReadChunks pre-stages one read request TLP per chunk (§4.4 read
// path), tracking each chunk's destination offset by tag so completions
// can be matched as they arrive, possibly out of order across tags (§5
// ordering guarantee #3).
func (e *Engine) buildReadChunks() {
	remaining := e.lengthRemaining
	busAddr := e.curBusAddr
	bufOffset := e.curBufOffset

	for remaining > 0 {
		chunk := remaining
		if chunk > e.mrrs {
			chunk = e.mrrs
		}
		lenDW := int(chunk+3) / 4
		tag := e.nextTag
		e.nextTag++
		e.pending[tag] = &pendingRead{bufOffset: bufOffset}

		firstBE, lastBE := beMasks(int(chunk))
		e.outQueue.Push(&tlp.RequestBeat{
			We:         false,
			Adr:        e.effectiveAddr(busAddr),
			Len:        tlp.EncodeLenField(lenDW),
			Tag:        tag,
			ReqID:      e.reqID(),
			FirstBE:    firstBE,
			LastBE:     lastBE,
			Attr:       e.attr(),
			At:         tlp.AddrType(e.addrType),
			PasidEn:    e.pasidEn,
			PasidVal:   e.pasidVal,
			Privileged: e.privileged,
			Execute:    e.execute,
			First:      true,
			Last:       true,
		})

		busAddr += uint64(chunk)
		bufOffset += chunk
		remaining -= chunk
	}
	e.lengthRemaining = 0
	e.curBusAddr = busAddr
	e.curBufOffset = bufOffset
}

// AcceptCompletion delivers an inbound completion TLP beat, returning true
// if this engine owns the tag. Called by internal/core's completion
// router for every beat of an inbound completion stream.
func (e *Engine) AcceptCompletion(c *tlp.CompletionBeat) bool {
	p, ok := e.pending[c.Tag]
	if !ok {
		return false
	}
	if c.Err {
		e.failed = true
		delete(e.pending, c.Tag)
		return true
	}
	if !e.buf.WriteRange(p.bufOffset, dwordBytes(c.Dat)) {
		e.failed = true
	}
	p.bufOffset += 4
	if c.End {
		delete(e.pending, c.Tag)
	}
	return true
}

func dwordBytes(dw uint32) []byte {
	return []byte{byte(dw), byte(dw >> 8), byte(dw >> 16), byte(dw >> 24)}
}

func (e *Engine) tickRunning() bool {
	if e.outQueue.Size() > 0 {
		return false // waiting for the master arbiter to drain queued beats
	}

	if e.direction == regs.DMADirWriteToHost {
		e.complete()
		return true
	}

	if len(e.pending) == 0 {
		e.complete()
		return true
	}

	if e.timeoutTicks > 0 {
		for tag, p := range e.pending {
			p.ticksWaited++
			if p.ticksWaited > e.timeoutTicks {
				e.failed = true
				delete(e.pending, tag)
			}
		}
		if len(e.pending) == 0 {
			e.complete()
			return true
		}
	}
	return false
}
