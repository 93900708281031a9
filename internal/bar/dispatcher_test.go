package bar_test

import (
	"testing"

	"github.com/bsapcie/exerciser/internal/bar"
	"github.com/bsapcie/exerciser/internal/config"
	"github.com/bsapcie/exerciser/internal/dmabuffer"
	"github.com/bsapcie/exerciser/internal/monitor"
	"github.com/bsapcie/exerciser/internal/msixtable"
	"github.com/bsapcie/exerciser/internal/regs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsapcie/exerciser/internal/tlp"
)

func newDispatcher(t *testing.T) (*bar.Dispatcher, *bar.CompletionArbiter, config.Config) {
	t.Helper()
	cfg := config.Default()
	ca := bar.NewCompletionArbiter(32)
	d := bar.NewDispatcher(cfg, regs.NewRegisterFile(), dmabuffer.New(dmabuffer.DefaultSize),
		msixtable.New(), msixtable.NewPBA(), monitor.New(), ca, 32)
	return d, ca, cfg
}

func TestRegisterFileReadProducesOneCompletion(t *testing.T) {
	d, ca, cfg := newDispatcher(t)
	d.Push(&tlp.RequestBeat{
		BarHit: bar.BitBAR0,
		Adr:    cfg.BAR0Base + 0x000,
		Len:    1,
		First:  true,
		Last:   true,
	})
	require.True(t, d.Tick())
	require.Equal(t, 1, ca.Len())
	out := ca.Pop()
	require.NotNil(t, out.Completion)
	assert.True(t, out.Completion.End)
}

func TestMultiBeatTLPRoutedAtomicallyToSameHandler(t *testing.T) {
	d, ca, cfg := newDispatcher(t)
	d.Push(&tlp.RequestBeat{
		BarHit: bar.BitBAR1, We: true, Adr: cfg.BAR1Base, Len: 2,
		FirstBE: 0xF, LastBE: 0xF, Dat: 0x11111111, First: true,
	})
	d.Push(&tlp.RequestBeat{
		BarHit: bar.BitBAR1, We: true, Adr: cfg.BAR1Base + 4, Len: 2,
		FirstBE: 0xF, LastBE: 0xF, Dat: 0x22222222, Last: true,
	})
	require.True(t, d.Tick())
	require.True(t, d.Tick())
	assert.Equal(t, 0, ca.Len(), "writes produce no completion")
}

func TestUnmatchedBarHitRoutesToStub(t *testing.T) {
	d, ca, _ := newDispatcher(t)
	d.Push(&tlp.RequestBeat{BarHit: 0, Adr: 0xDEAD, Len: 1, First: true, Last: true})
	require.True(t, d.Tick())
	out := ca.Pop()
	require.NotNil(t, out.Completion)
	assert.True(t, out.Completion.Err)
}

func TestStubBarReadReturnsUnsupportedRequest(t *testing.T) {
	d, ca, cfg := newDispatcher(t)
	d.Push(&tlp.RequestBeat{BarHit: bar.BitBAR3, Adr: cfg.BAR0Base, Len: 1, First: true, Last: true})
	require.True(t, d.Tick())
	out := ca.Pop()
	require.NotNil(t, out.Completion)
	assert.True(t, out.Completion.Err)
}

func TestStubBarWriteDiscardedSilently(t *testing.T) {
	d, ca, cfg := newDispatcher(t)
	d.Push(&tlp.RequestBeat{BarHit: bar.BitBAR4, We: true, Adr: cfg.BAR0Base, Len: 1, First: true, Last: true})
	require.True(t, d.Tick())
	assert.Equal(t, 0, ca.Len())
}

func TestMSIXPBAWriteIgnored(t *testing.T) {
	d, ca, cfg := newDispatcher(t)
	d.Push(&tlp.RequestBeat{BarHit: bar.BitBAR5, We: true, Adr: cfg.BAR5Base, Len: 1, First: true, Last: true})
	require.True(t, d.Tick())
	assert.Equal(t, 0, ca.Len())
}

func TestEmptyDispatcherMakesNoProgress(t *testing.T) {
	d, _, _ := newDispatcher(t)
	assert.False(t, d.Tick())
}
