package simcore_test

import (
	"testing"

	"github.com/bsapcie/exerciser/internal/simcore"
	"github.com/stretchr/testify/assert"
)

type fakeMsg struct {
	meta simcore.MsgMeta
	tag  int
}

func (m *fakeMsg) Meta() *simcore.MsgMeta { return &m.meta }

func TestBufferFIFOOrder(t *testing.T) {
	b := simcore.NewBuffer("b", 2)
	assert.True(t, b.CanPush())

	b.Push(&fakeMsg{tag: 1})
	b.Push(&fakeMsg{tag: 2})
	assert.False(t, b.CanPush())
	assert.Equal(t, 2, b.Size())

	first := b.Pop().(*fakeMsg)
	assert.Equal(t, 1, first.tag)

	second := b.Pop().(*fakeMsg)
	assert.Equal(t, 2, second.tag)

	assert.Nil(t, b.Pop())
}

func TestBufferUnbounded(t *testing.T) {
	b := simcore.NewBuffer("b", 0)
	for i := 0; i < 100; i++ {
		assert.True(t, b.CanPush())
		b.Push(&fakeMsg{tag: i})
	}
	assert.Equal(t, 100, b.Size())
}
