package regs_test

import (
	"testing"

	"github.com/bsapcie/exerciser/internal/regs"
	"github.com/stretchr/testify/assert"
)

func TestUnenumeratedOffsetReadsZero(t *testing.T) {
	r := regs.NewRegisterFile()
	assert.Equal(t, uint32(0), r.Read(0x050))
}

func TestIDRegister(t *testing.T) {
	r := regs.NewRegisterFile()
	assert.Equal(t, uint32(0xED0113B5), r.Read(regs.ID))
}

func TestRegisterRoundTrip_R1(t *testing.T) {
	r := regs.NewRegisterFile()
	r.Write(regs.DMAOffset, 0x1234, 0xF)
	assert.Equal(t, uint32(0x1234), r.Read(regs.DMAOffset))
}

func TestROWritesAreDropped(t *testing.T) {
	r := regs.NewRegisterFile()
	r.Write(regs.ID, 0xFFFFFFFF, 0xF)
	assert.Equal(t, uint32(0xED0113B5), r.Read(regs.ID))
}

func TestMSITriggerSelfClear_I1(t *testing.T) {
	r := regs.NewRegisterFile()
	r.Write(regs.MSICTL, 0x8000_0005, 0xF)

	vector, trigger := r.MSICtl()
	assert.Equal(t, uint16(5), vector)
	assert.True(t, trigger)

	r.ClearMSITrigger()
	_, trigger = r.MSICtl()
	assert.False(t, trigger)
}

func TestDMATriggerSelfClear_I1(t *testing.T) {
	r := regs.NewRegisterFile()
	r.Write(regs.DMACTL, 0x11, 0xF) // direction=1, trigger=1
	assert.True(t, r.DMACtl().Trigger)

	r.ClearDMATrigger()
	assert.False(t, r.DMACtl().Trigger)
}

func TestTxnCtrlClearSelfClears(t *testing.T) {
	r := regs.NewRegisterFile()
	r.Write(regs.TxnCtrl, 0x2, 0xF) // clear=1
	assert.True(t, r.TxnCtrl().Clear)

	r.ClearTxnClearRequest()
	assert.False(t, r.TxnCtrl().Clear)
}

func TestATSCtlInvalidatedIsW1C(t *testing.T) {
	r := regs.NewRegisterFile()
	r.SetATSInvalidated(true)
	assert.True(t, r.ATSInvalidated())

	r.Write(regs.ATSCTL, 1<<9, 0xF)
	assert.False(t, r.ATSInvalidated())
}
