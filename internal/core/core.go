// Package core wires every leaf and mid-level component into the complete
// BSA PCIe Exerciser endpoint core, §2's top-level dependency order:
// RegisterFile, DMABuffer, MSIXTable/PBA, ATC; TxnMonitor; DMAEngine,
// MSIXController, ATSEngine, ATSInvalidationHandler, PASIDInjector;
// BARDispatcher, CompletionArbiter, MasterArbiter, TxArbiter; top-level
// wiring. Grounded on the teacher's top-level engine-assembly files (the
// sim package's platform builders), which compose independently-built
// components through constructor injection exactly like this.
package core

import (
	"github.com/bsapcie/exerciser/internal/arbiter"
	"github.com/bsapcie/exerciser/internal/atc"
	"github.com/bsapcie/exerciser/internal/ats"
	"github.com/bsapcie/exerciser/internal/bar"
	"github.com/bsapcie/exerciser/internal/config"
	"github.com/bsapcie/exerciser/internal/dma"
	"github.com/bsapcie/exerciser/internal/dmabuffer"
	"github.com/bsapcie/exerciser/internal/httpapi"
	"github.com/bsapcie/exerciser/internal/monitor"
	"github.com/bsapcie/exerciser/internal/msixctl"
	"github.com/bsapcie/exerciser/internal/msixtable"
	"github.com/bsapcie/exerciser/internal/pasid"
	"github.com/bsapcie/exerciser/internal/regs"
	"github.com/bsapcie/exerciser/internal/simcore"
	"github.com/bsapcie/exerciser/internal/tlp"
)

// Core is the fully wired exerciser endpoint.
type Core struct {
	cfg config.Config

	RegFile *regs.RegisterFile
	DMABuf  *dmabuffer.DMABuffer
	MSIXTbl *msixtable.Table
	MSIXPba *msixtable.PBA
	ATCache *atc.ATC
	Monitor *monitor.Monitor

	dmaEngine *dma.Engine
	msixCtl   *msixctl.Controller
	atsEngine *ats.Engine
	atsInv    *ats.InvalidationHandler

	dispatcher  *bar.Dispatcher
	completions *bar.CompletionArbiter
	master      *arbiter.MasterArbiter
	merge       *arbiter.MergeArbiter
	injector    *pasid.Injector
	txArbiter   *arbiter.TxArbiter

	middlewares simcore.MiddlewareHolder
}

// New assembles a Core from cfg, §2/§6.4.
func New(cfg config.Config) *Core {
	c := &Core{cfg: cfg}

	c.RegFile = regs.NewRegisterFile()
	c.DMABuf = dmabuffer.New(dmabuffer.DefaultSize)
	c.MSIXTbl = msixtable.New()
	c.MSIXPba = msixtable.NewPBA()
	c.ATCache = atc.New()
	c.Monitor = monitor.New()
	c.RegFile.SetTxnTraceReader(c.Monitor.ReadNextDWord)

	endpointID := func() uint16 { return cfg.EndpointID }
	ridOverride := c.RegFile.RIDOverride
	atsEnabled := func() bool { return cfg.ATSEnabled }

	c.dmaEngine = dma.NewEngine(c.RegFile, c.DMABuf, c.ATCache, endpointID, cfg.DMATimeoutTicks)
	c.dmaEngine.SetLinkSizes(cfg.MaxPayloadSize, cfg.MaxRequestSize)
	c.msixCtl = msixctl.NewController(c.RegFile, c.MSIXTbl, c.MSIXPba, endpointID, ridOverride)
	c.atsEngine = ats.NewEngine(c.RegFile, c.ATCache, atsEnabled, endpointID)

	c.completions = bar.NewCompletionArbiter(64)
	c.dispatcher = bar.NewDispatcher(cfg, c.RegFile, c.DMABuf, c.MSIXTbl, c.MSIXPba, c.Monitor, c.completions, 64)

	c.master = arbiter.NewMasterArbiter(64, c.dmaEngine, c.msixCtl, c.atsEngine)
	c.merge = arbiter.NewMergeArbiter(64, c.completions, c.master)
	c.injector = pasid.NewInjector(c.merge, 64)
	c.txArbiter = arbiter.NewTxArbiter(c.injector, 16, 64)

	c.atsInv = ats.NewInvalidationHandler(c.RegFile, c.ATCache, c.dmaEngine, c.atsEngine, c.txArbiter.RawInput())

	for _, m := range []simcore.Middleware{
		c.dispatcher,
		c.dmaEngine,
		c.msixCtl,
		c.atsEngine,
		c.atsInv,
		c.master,
		c.merge,
		c.injector,
		c.txArbiter,
		simcore.MiddlewareFunc(c.syncControlPlane),
	} {
		c.middlewares.AddMiddleware(m)
	}

	return c
}

// syncControlPlane services the register-file side effects that have no
// dedicated FSM: TXN_CTRL's enable/clear/overflow loop into the monitor,
// and ATSCTL.clear_atc into the ATC, §4.10/§4.5.
func (c *Core) syncControlPlane() bool {
	progress := false

	txn := c.RegFile.TxnCtrl()
	c.Monitor.SetEnabled(txn.Enable)
	if txn.Clear {
		c.Monitor.Clear()
		c.RegFile.ClearTxnClearRequest()
		progress = true
	}
	c.RegFile.SetTxnOverflow(c.Monitor.Overflow())

	atsCtl := c.RegFile.ATSCtl()
	if atsCtl.ClearATC {
		c.ATCache.Invalidate()
		c.RegFile.ClearATCClearRequest()
		progress = true
	}

	return progress
}

// PushRequestBeat delivers one inbound request beat to the BAR dispatcher.
func (c *Core) PushRequestBeat(b *tlp.RequestBeat) { c.dispatcher.Push(b) }

// PushCompletionBeat delivers one inbound completion beat (a response to a
// DMA read or an ATS translation request) to whichever engine owns its
// tag.
func (c *Core) PushCompletionBeat(cp *tlp.CompletionBeat) bool {
	if c.dmaEngine.AcceptCompletion(cp) {
		return true
	}
	return c.atsEngine.AcceptCompletion(cp)
}

// PushInvalidation delivers one inbound ATS Invalidation Request.
func (c *Core) PushInvalidation(reqID uint16, tag uint8, addr uint64, size uint32, global bool, pasidVal uint32) {
	c.atsInv.PushInvalidation(reqID, tag, addr, size, global, pasidVal)
}

// NewDebugServer builds an httpapi.Server over this Core's register file,
// MSI-X table/PBA, ATC, and monitor, for standalone inspection, §6.4.
func (c *Core) NewDebugServer() *httpapi.Server {
	return httpapi.New(c.RegFile, c.MSIXTbl, c.MSIXPba, c.ATCache, c.Monitor)
}

// PeekTX returns the next outbound beat without removing it.
func (c *Core) PeekTX() *tlp.OutBeat { return c.txArbiter.Peek() }

// PopTX removes and returns the next outbound beat, or nil if none.
func (c *Core) PopTX() *tlp.OutBeat { return c.txArbiter.Pop() }

// RunToQuiescence ticks every component in dependency order until none
// reports progress, per §5's cooperative single-threaded execution model,
// or until maxSteps passes are exhausted. It returns the number of passes
// actually taken.
func (c *Core) RunToQuiescence(maxSteps int) int {
	steps := 0
	for ; steps < maxSteps; steps++ {
		if !c.middlewares.Tick() {
			break
		}
	}
	return steps
}
