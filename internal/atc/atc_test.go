package atc_test

import (
	"testing"

	"github.com/bsapcie/exerciser/internal/atc"
	"github.com/stretchr/testify/assert"
)

func TestLookupMissWhenEmpty(t *testing.T) {
	a := atc.New()
	res := a.Lookup(0x1000, false, 0)
	assert.False(t, res.Hit)
}

func TestLookupOffsetPreserved(t *testing.T) {
	a := atc.New()
	a.Store(atc.Entry{InputAddr: 0x10000, OutputAddr: 0x90000, RangeSize: 0x1000})

	res := a.Lookup(0x10040, false, 0)
	assert.True(t, res.Hit)
	assert.Equal(t, uint64(0x90040), res.Output)
}

func TestLookupPasidMismatchMisses(t *testing.T) {
	a := atc.New()
	a.Store(atc.Entry{InputAddr: 0x10000, OutputAddr: 0x90000, RangeSize: 0x1000, PasidValid: true, PasidVal: 5})
	res := a.Lookup(0x10000, true, 6)
	assert.False(t, res.Hit)
}

func TestInvalidateClearsEntry_I5(t *testing.T) {
	a := atc.New()
	a.Store(atc.Entry{InputAddr: 0x10000, OutputAddr: 0x90000, RangeSize: 0x1000})
	assert.True(t, a.Lookup(0x10000, false, 0).Hit)

	a.Invalidate()
	assert.False(t, a.Lookup(0x10000, false, 0).Hit)
}

func TestOverlapsDetectsRangeIntersection(t *testing.T) {
	a := atc.New()
	a.Store(atc.Entry{InputAddr: 0x10000, RangeSize: 0x1000})
	assert.True(t, a.Overlaps(0x10800, 0x10))
	assert.False(t, a.Overlaps(0x20000, 0x10))
}
