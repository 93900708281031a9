// Package msixctl implements the MSI-X Controller, §4.3: a table-backed
// interrupt generator that reads the vector's table entry, honors its mask
// bit against the PBA, and otherwise issues a single-beat posted Memory
// Write TLP. Grounded on the DMA engine's trigger-latch-then-run shape
// (§4.4), simplified to this component's much shorter sequence.
package msixctl

import (
	"github.com/bsapcie/exerciser/internal/msixtable"
	"github.com/bsapcie/exerciser/internal/regs"
	"github.com/bsapcie/exerciser/internal/tlp"
)

type state int

const (
	stateIdle state = iota
	stateReadTable
	stateIssueWrite
)

// Controller is the MSI-X Controller FSM.
type Controller struct {
	regFile *regs.RegisterFile
	table   *msixtable.Table
	pba     *msixtable.PBA

	endpointID func() uint16
	ridOverride func() (uint16, bool)

	state       state
	vector      uint16
	readStepsLeft int
	pending     *tlp.RequestBeat
}

// NewController wires a Controller to its register file, table, PBA, and
// the endpoint-identity / RID-override collaborators (§6.4, §9 open
// question on RID override scope).
func NewController(
	regFile *regs.RegisterFile,
	table *msixtable.Table,
	pba *msixtable.PBA,
	endpointID func() uint16,
	ridOverride func() (uint16, bool),
) *Controller {
	return &Controller{
		regFile:     regFile,
		table:       table,
		pba:         pba,
		endpointID:  endpointID,
		ridOverride: ridOverride,
	}
}

// Name satisfies arbiter.RequestSource.
func (c *Controller) Name() string { return "msixctl" }

// Pending reports whether a Memory Write TLP is staged and ready to be
// granted by the master arbiter.
func (c *Controller) Pending() bool { return c.pending != nil }

// PopBeat hands the staged Memory Write TLP to the master arbiter. MSI-X
// writes are always single-beat, so accepting the grant always both
// satisfies it and returns the FSM to IDLE in one call.
func (c *Controller) PopBeat() *tlp.RequestBeat {
	b := c.pending
	c.pending = nil
	c.state = stateIdle
	return b
}

// Tick advances the FSM by one internal step, returning true on progress.
// "At most one MSI-X in progress" (§4.3) falls out of the FSM itself never
// accepting a new trigger outside IDLE.
func (c *Controller) Tick() bool {
	switch c.state {
	case stateIdle:
		return c.tickIdle()
	case stateReadTable:
		return c.tickReadTable()
	case stateIssueWrite:
		// Holds until PopBeat drains it; nothing to do until the arbiter
		// grants this master.
		return false
	}
	return false
}

func (c *Controller) tickIdle() bool {
	vector, trigger := c.regFile.MSICtl()
	if !trigger {
		return false
	}
	c.vector = vector
	c.regFile.ClearMSITrigger()
	c.state = stateReadTable
	c.readStepsLeft = 3
	return true
}

func (c *Controller) tickReadTable() bool {
	c.readStepsLeft--
	if c.readStepsLeft > 0 {
		return true
	}

	entry, ok := c.table.EntryFor(c.vector)
	if !ok {
		// B4: vector >= 16, accepted but dropped, PBA unchanged.
		c.state = stateIdle
		return true
	}
	if entry.Masked() {
		c.pba.Set(c.vector)
		c.state = stateIdle
		return true
	}

	reqID := c.endpointID()
	if rid, valid := c.ridOverride(); valid {
		reqID = rid
	}
	addr := uint64(entry.MsgAddrHi)<<32 | uint64(entry.MsgAddrLo)
	// An unmasked re-trigger for a vector previously left pending in the
	// PBA clears it here, resolving the §9 open question on PBA clearing.
	c.pba.Clear(c.vector)
	c.pending = &tlp.RequestBeat{
		We:      true,
		Adr:     addr,
		Len:     1,
		ReqID:   reqID,
		FirstBE: 0xF,
		LastBE:  0xF,
		Dat:     entry.MsgData,
		BE:      0xF,
		First:   true,
		Last:    true,
	}
	c.state = stateIssueWrite
	return true
}
