package core_test

import (
	"testing"

	"github.com/bsapcie/exerciser/internal/atc"
	"github.com/bsapcie/exerciser/internal/config"
	"github.com/bsapcie/exerciser/internal/core"
	"github.com/bsapcie/exerciser/internal/regs"
	"github.com/bsapcie/exerciser/internal/tlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterFileReadRoundTripsThroughBARDispatch(t *testing.T) {
	c := core.New(config.Default())

	c.PushRequestBeat(&tlp.RequestBeat{
		We: false, Adr: uint64(regs.ATSCTL), Len: 1, Tag: 7, ReqID: 0x0200,
		FirstBE: 0xF, LastBE: 0xF, BarHit: 1 << 0, First: true, Last: true,
	})
	c.RunToQuiescence(64)

	b := c.PeekTX()
	require.NotNil(t, b)
	require.NotNil(t, b.Completion)
	assert.Equal(t, uint8(7), b.Completion.Tag)
	assert.True(t, b.First && b.Last)
}

func TestDMAWriteEndToEndEmitsOnTX_S3(t *testing.T) {
	c := core.New(config.Default())

	c.RegFile.Write(regs.DMABusAddrLo, 0, 0xF)
	c.RegFile.Write(regs.DMABusAddrHi, 1, 0xF)
	c.RegFile.Write(regs.DMALen, 128, 0xF)
	c.RegFile.Write(regs.DMAOffset, 0, 0xF)
	c.RegFile.Write(regs.DMACTL, 0x1|(regs.DMADirWriteToHost<<4), 0xF) // trigger, direction=write

	c.RunToQuiescence(4096)

	var beats int
	for {
		b := c.PopTX()
		if b == nil {
			break
		}
		require.NotNil(t, b.Request)
		beats++
	}
	assert.Equal(t, 32, beats)
	assert.Equal(t, uint32(regs.DMAStatusOK), c.RegFile.Read(regs.DMAStatus))
}

func TestInvalidationCompletionWaitsForDMAChunkLast_S6(t *testing.T) {
	c := core.New(config.Default())

	c.ATCache.Store(atc.Entry{
		InputAddr:  0x10000,
		OutputAddr: 0x10000,
		RangeSize:  0x1000,
	})

	c.RegFile.Write(regs.DMABusAddrLo, 0x10000, 0xF)
	c.RegFile.Write(regs.DMABusAddrHi, 0, 0xF)
	c.RegFile.Write(regs.DMALen, 64, 0xF)
	c.RegFile.Write(regs.DMAOffset, 0, 0xF)
	dmactl := uint32(0x1) | regs.DMADirWriteToHost<<4 | 1<<9 | regs.AddrTypeUntranslated<<10
	c.RegFile.Write(regs.DMACTL, dmactl, 0xF)

	// One step to get the chunk latched and the engine into its busy state
	// before the invalidation request arrives, mirroring S6's precondition
	// that the DMA transfer is already in flight.
	c.RunToQuiescence(1)
	c.PushInvalidation(0x0300, 9, 0x10800, 0x100, false, 0)
	c.RunToQuiescence(256)

	var beats, messages int
	lastBeatIndex, firstMessageIndex := -1, -1
	for idx := 0; ; idx++ {
		b := c.PopTX()
		if b == nil {
			break
		}
		switch {
		case b.Request != nil:
			beats++
			if b.Request.Last {
				lastBeatIndex = idx
			}
		case b.Message != nil:
			messages++
			if firstMessageIndex == -1 {
				firstMessageIndex = idx
			}
		}
	}

	require.Equal(t, 16, beats, "64 bytes / 4 = 16 beats")
	require.Equal(t, 1, messages)
	require.NotEqual(t, -1, lastBeatIndex)
	require.NotEqual(t, -1, firstMessageIndex)
	assert.Less(t, lastBeatIndex, firstMessageIndex,
		"invalidation completion reaches TX only after the DMA chunk's last beat")
	assert.True(t, c.RegFile.ATSInvalidated(), "ATC invalidated before the completion message left the TX arbiter")
}

func TestATSInvalidationWithNoOverlapCompletesWithoutTouchingATC(t *testing.T) {
	c := core.New(config.Default())
	c.ATCache.Store(atc.Entry{InputAddr: 0x10000, OutputAddr: 0x10000, RangeSize: 0x1000})

	c.PushInvalidation(0x0200, 3, 0x500000, 0x1000, false, 0)
	c.RunToQuiescence(64)

	var found bool
	for {
		b := c.PopTX()
		if b == nil {
			break
		}
		if b.Message != nil {
			found = true
		}
	}
	assert.True(t, found, "invalidation completion message reaches TX")
	assert.True(t, c.ATCache.Valid(), "non-overlapping ATC entry is kept")
	assert.False(t, c.RegFile.ATSInvalidated())
}
