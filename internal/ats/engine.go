// Package ats implements the ATS Engine and ATS Invalidation Handler,
// §4.5/§4.6: the translation-request issuer, and the inbound-message
// handler that must coordinate with in-flight DMA and ATS activity before
// acknowledging an invalidation. Grounded on the trigger-latch-then-run
// shape shared with dma and msixctl, plus the retry-flag message-passing
// design spec.md §9 prescribes to resolve the cyclic coupling between the
// three components without shared mutable state beyond the ATC cell.
package ats

import (
	"github.com/bsapcie/exerciser/internal/atc"
	"github.com/bsapcie/exerciser/internal/regs"
	"github.com/bsapcie/exerciser/internal/tlp"
)

type state int

const (
	stateIdle state = iota
	stateIssueReq
	stateWaitCpl
)

// Engine is the ATS Engine FSM.
type Engine struct {
	regFile *regs.RegisterFile
	atcache *atc.ATC

	atsEnabled func() bool
	endpointID func() uint16

	state state

	reqPasidEn    bool
	reqPrivileged bool
	reqNoWrite    bool
	reqExecReq    bool
	reqAddr       uint64
	tag           uint8

	mustRetry bool

	pending *tlp.RequestBeat
}

// NewEngine wires an Engine to its register file, ATC, and the
// configuration-space / endpoint-identity collaborators (§6.4).
func NewEngine(regFile *regs.RegisterFile, atcache *atc.ATC, atsEnabled func() bool, endpointID func() uint16) *Engine {
	return &Engine{regFile: regFile, atcache: atcache, atsEnabled: atsEnabled, endpointID: endpointID}
}

// Name satisfies arbiter.RequestSource.
func (e *Engine) Name() string { return "ats" }

// Pending reports whether a Translation Request TLP is staged.
func (e *Engine) Pending() bool { return e.pending != nil }

// PopBeat hands the staged Translation Request to the master arbiter and
// advances ISSUE_REQ to WAIT_CPL, since the request is always single-beat.
func (e *Engine) PopBeat() *tlp.RequestBeat {
	b := e.pending
	e.pending = nil
	e.state = stateWaitCpl
	return b
}

// InFlight reports whether a translation is outstanding, used by
// ATSInvalidationHandler's CHECK state.
func (e *Engine) InFlight() bool { return e.state != stateIdle }

// PendingRange reports the untranslated address an in-flight translation
// is resolving, used to test overlap with an invalidation range.
func (e *Engine) PendingRange() (addr uint64, inFlight bool) {
	return e.reqAddr, e.state != stateIdle
}

// RequestRetry is the invalidation handler's single-bit signal asserted
// when an overlapping invalidation arrives while this engine is in
// flight, §9. The engine discards the pending completion instead of
// storing it and returns to IDLE with success=0.
func (e *Engine) RequestRetry() { e.mustRetry = true }

// Tick advances the FSM by one internal step, returning true on progress.
func (e *Engine) Tick() bool {
	if !e.atsEnabled() {
		e.atcache.Invalidate()
		if e.state != stateIdle {
			e.state = stateIdle
			e.regFile.SetATSInFlight(false)
			e.mustRetry = false
		}
		return false
	}

	switch e.state {
	case stateIdle:
		return e.tickIdle()
	case stateIssueReq:
		return false // waiting for the master arbiter to drain e.pending
	case stateWaitCpl:
		return false // advanced externally via AcceptCompletion
	}
	return false
}

func (e *Engine) tickIdle() bool {
	f := e.regFile.ATSCtl()
	if !f.Trigger {
		return false
	}
	e.regFile.ClearATSTrigger()

	e.reqPasidEn = f.PasidEn
	e.reqPrivileged = f.Privileged
	e.reqNoWrite = f.NoWrite
	e.reqExecReq = f.ExecReq
	e.reqAddr = e.regFile.DMABusAddr()
	e.tag++
	e.mustRetry = false

	reqID := e.endpointID()
	if rid, valid := e.regFile.RIDOverride(); valid {
		reqID = rid
	}

	e.pending = &tlp.RequestBeat{
		We:         false,
		Adr:        e.reqAddr,
		Len:        1,
		Tag:        e.tag,
		ReqID:      reqID,
		FirstBE:    0xF,
		LastBE:     0xF,
		At:         tlp.AddrUntranslated,
		PasidEn:    e.reqPasidEn,
		PasidVal:   e.regFile.PasidValVal(),
		Privileged: e.reqPrivileged,
		Execute:    e.reqExecReq,
		First:      true,
		Last:       true,
	}
	e.state = stateIssueReq
	e.regFile.SetATSInFlight(true)
	return true
}

// AcceptCompletion delivers the translation completion for this engine's
// outstanding tag, returning true if it was accepted. On success the
// result is parsed and stored in the ATC unless an overlapping
// invalidation arrived while in flight (mustRetry), per §4.5's
// coordination rule.
func (e *Engine) AcceptCompletion(c *tlp.CompletionBeat) bool {
	if e.state != stateWaitCpl || c.Tag != e.tag {
		return false
	}

	if e.mustRetry || c.Err {
		e.regFile.SetATSSuccess(false)
		e.state = stateIdle
		e.regFile.SetATSInFlight(false)
		e.mustRetry = false
		return true
	}

	translated, rangeSize, perm := decodeTranslation(c.Dat)
	e.regFile.SetATSTranslation(translated, rangeSize, perm)
	e.regFile.SetATSSuccess(true)
	e.regFile.SetATSCacheable(perm != 0)

	e.atcache.Store(atc.Entry{
		InputAddr:   e.reqAddr &^ uint64(rangeSize-1),
		OutputAddr:  translated,
		RangeSize:   rangeSize,
		Permissions: perm,
		PasidValid:  e.reqPasidEn,
		PasidVal:    e.regFile.PasidValVal(),
	})

	e.state = stateIdle
	e.regFile.SetATSInFlight(false)
	return true
}

// decodeTranslation extracts (translated address, range size, permission
// bits) from a translation completion payload DWORD. The translated
// address and range live in a model-defined single-DWORD encoding since
// §6.3 does not further specify the ATS completion's internal layout
// beyond "translated address, range_size, permissions, and R bit":
// bits [31:12] page-aligned address, [11:4] range_size log2, [3:1] perm,
// [0] R (cacheable-hint echoed into perm!=0 when set).
func decodeTranslation(dat uint32) (addr uint64, rangeSize uint32, perm uint8) {
	addr = uint64(dat&0xFFFFF000)
	shift := (dat >> 4) & 0xFF
	rangeSize = 1 << shift
	perm = uint8((dat >> 1) & 0x7)
	if dat&0x1 != 0 {
		perm |= 0x1
	}
	return
}
