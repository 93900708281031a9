package ats

import (
	"github.com/bsapcie/exerciser/internal/atc"
	"github.com/bsapcie/exerciser/internal/regs"
	"github.com/bsapcie/exerciser/internal/simcore"
	"github.com/bsapcie/exerciser/internal/tlp"
)

type invState int

const (
	invIdle invState = iota
	invCheck
	invWaitATS
	invWaitDMA
	invInvalidate
	invSendCpl
)

// DMAStatusProvider is the narrow view of DMAEngine the invalidation
// handler needs for its CHECK/WAIT_DMA decision, §4.6.
type DMAStatusProvider interface {
	Busy() bool
	UsesATC() bool
}

// ATSRetryTarget is the narrow view of the ATS engine the invalidation
// handler needs to assert retry and test overlap, §4.6/§9.
type ATSRetryTarget interface {
	InFlight() bool
	PendingRange() (addr uint64, inFlight bool)
	RequestRetry()
}

// invalidationRequest is one inbound ATS Invalidation Request (message
// code 0x01), carrying the range to invalidate and the fields needed to
// build the completion message.
type invalidationRequest struct {
	ReqID    uint16
	Tag      uint8
	Addr     uint64
	Size     uint32
	Global   bool
	PasidVal uint32
}

// InvalidationHandler processes inbound ATS Invalidation Requests and
// emits Invalidation Completion messages on a raw TX source, §4.6.
type InvalidationHandler struct {
	regFile *regs.RegisterFile
	atcache *atc.ATC
	dmaEng  DMAStatusProvider
	atsEng  ATSRetryTarget

	rawOut simcore.Buffer

	state invState
	req   invalidationRequest
	in    simcore.Buffer
}

// NewInvalidationHandler wires an InvalidationHandler to the ATC, the DMA
// and ATS engines it must coordinate with, and the TX arbiter's raw input.
func NewInvalidationHandler(regFile *regs.RegisterFile, atcache *atc.ATC, dmaEng DMAStatusProvider, atsEng ATSRetryTarget, rawOut simcore.Buffer) *InvalidationHandler {
	return &InvalidationHandler{
		regFile: regFile,
		atcache: atcache,
		dmaEng:  dmaEng,
		atsEng:  atsEng,
		rawOut:  rawOut,
		in:      simcore.NewBuffer("ats.inv.in", 0),
	}
}

// PushInvalidation delivers one inbound ATS Invalidation Request. Since
// this message is header-only and single-beat, the caller supplies its
// fully decoded fields directly rather than a beat stream.
func (h *InvalidationHandler) PushInvalidation(reqID uint16, tag uint8, addr uint64, size uint32, global bool, pasidVal uint32) {
	h.in.Push(&invReqMsg{invalidationRequest{ReqID: reqID, Tag: tag, Addr: addr, Size: size, Global: global, PasidVal: pasidVal}})
}

type invReqMsg struct {
	invalidationRequest
}

func (m *invReqMsg) Meta() *simcore.MsgMeta { return &simcore.MsgMeta{} }

// Tick advances the FSM by one internal step, returning true on progress.
func (h *InvalidationHandler) Tick() bool {
	switch h.state {
	case invIdle:
		return h.tickIdle()
	case invCheck:
		return h.tickCheck()
	case invWaitATS:
		return h.tickWaitATS()
	case invWaitDMA:
		return h.tickWaitDMA()
	case invInvalidate:
		return h.tickInvalidate()
	case invSendCpl:
		return h.tickSendCpl()
	}
	return false
}

func (h *InvalidationHandler) tickIdle() bool {
	if h.in.Size() == 0 {
		return false
	}
	v := h.in.Pop().(*invReqMsg)
	h.req = v.invalidationRequest
	h.state = invCheck
	return true
}

func (h *InvalidationHandler) tickCheck() bool {
	overlap := h.atcache.Overlaps(h.req.Addr, h.req.Size)
	entry := h.atcache.Entry()
	pasidMismatch := !h.req.Global && entry.PasidValid && entry.PasidVal != h.req.PasidVal

	if !h.atcache.Valid() || !overlap || pasidMismatch {
		h.state = invSendCpl
		return true
	}

	if addr, inFlight := h.atsEng.PendingRange(); inFlight && overlapsRange(addr, h.req.Addr, h.req.Size) {
		h.atsEng.RequestRetry()
		h.state = invWaitATS
		return true
	}

	if h.dmaEng.Busy() && h.dmaEng.UsesATC() {
		h.state = invWaitDMA
		return true
	}

	h.state = invInvalidate
	return true
}

func overlapsRange(pending, addr uint64, size uint32) bool {
	// A single in-flight ATS request resolves one address, not a range;
	// treat it as a zero-length point that overlaps iff it falls inside
	// the invalidation's range.
	return pending >= addr && pending < addr+uint64(size)
}

func (h *InvalidationHandler) tickWaitATS() bool {
	if h.atsEng.InFlight() {
		return false
	}
	h.state = invCheck
	return true
}

func (h *InvalidationHandler) tickWaitDMA() bool {
	if h.dmaEng.Busy() {
		return false
	}
	h.state = invInvalidate
	return true
}

func (h *InvalidationHandler) tickInvalidate() bool {
	h.atcache.Invalidate()
	h.regFile.SetATSInvalidated(true)
	h.state = invSendCpl
	return true
}

func (h *InvalidationHandler) tickSendCpl() bool {
	hdr := tlp.ATSInvalidationCompletionHeader(h.req.ReqID, h.req.Tag)
	h.rawOut.Push(tlp.FromMessage(hdr))
	h.state = invIdle
	return true
}
