package arbiter_test

import (
	"testing"

	"github.com/bsapcie/exerciser/internal/arbiter"
	"github.com/bsapcie/exerciser/internal/tlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOutBeatSource is a synthetic outBeatSource/RequestSource stand-in for
// exercising TxArbiter and MergeArbiter directly, without wiring a real
// injector or completion arbiter.
type fakeOutBeatSource struct {
	beats []*tlp.OutBeat
}

func (f *fakeOutBeatSource) Len() int { return len(f.beats) }

func (f *fakeOutBeatSource) Pop() *tlp.OutBeat {
	if len(f.beats) == 0 {
		return nil
	}
	b := f.beats[0]
	f.beats = f.beats[1:]
	return b
}

func beat(first, last bool) *tlp.OutBeat {
	return &tlp.OutBeat{First: first, Last: last, Request: &tlp.RequestBeat{First: first, Last: last}}
}

func TestTxArbiterDrainsMainPathWhenRawIsEmpty(t *testing.T) {
	main := &fakeOutBeatSource{beats: []*tlp.OutBeat{beat(true, false), beat(false, true)}}
	a := arbiter.NewTxArbiter(main, 4, 4)

	require.True(t, a.Tick())
	require.True(t, a.Tick())
	assert.False(t, a.Tick(), "nothing left to forward")
	assert.Equal(t, 2, a.Len())
}

func TestTxArbiterRawSourcePreemptsBetweenMainTLPs(t *testing.T) {
	main := &fakeOutBeatSource{beats: []*tlp.OutBeat{beat(true, true), beat(true, true)}}
	a := arbiter.NewTxArbiter(main, 4, 4)

	// Queue a raw message before either main TLP has been forwarded.
	a.RawInput().Push(&tlp.OutBeat{Message: &[4]uint32{1, 2, 3, 4}})

	require.True(t, a.Tick())
	first := a.Pop()
	require.NotNil(t, first)
	assert.NotNil(t, first.Message, "raw source is forwarded ahead of an unstarted main TLP")

	require.True(t, a.Tick())
	second := a.Pop()
	require.NotNil(t, second)
	assert.NotNil(t, second.Request)
}

func TestTxArbiterRawSourceCannotPreemptMidPacket(t *testing.T) {
	main := &fakeOutBeatSource{beats: []*tlp.OutBeat{beat(true, false), beat(false, true)}}
	a := arbiter.NewTxArbiter(main, 4, 4)

	require.True(t, a.Tick()) // forwards the first beat, entering mid-packet
	first := a.Pop()
	require.NotNil(t, first)
	assert.True(t, first.First)

	// A raw message arrives while the main TLP is still mid-packet.
	a.RawInput().Push(&tlp.OutBeat{Message: &[4]uint32{1, 2, 3, 4}})

	require.True(t, a.Tick())
	second := a.Pop()
	require.NotNil(t, second)
	assert.NotNil(t, second.Request, "the in-flight main TLP's last beat is forwarded before the raw message")
	assert.True(t, second.Last)

	require.True(t, a.Tick())
	third := a.Pop()
	require.NotNil(t, third)
	assert.NotNil(t, third.Message, "the raw message is only forwarded once the main TLP reaches last=1")
}
