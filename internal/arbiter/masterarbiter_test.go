package arbiter_test

import (
	gomock "go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bsapcie/exerciser/internal/arbiter"
	"github.com/bsapcie/exerciser/internal/tlp"
)

// singleBeatSource stubs a RequestSource that always has exactly one
// single-beat TLP pending, re-armed after every grant, so fairness (I7)
// can be observed over an unbounded number of rounds.
func singleBeatSource(m *MockRequestSource, name string, tag uint8) {
	m.EXPECT().Name().Return(name).AnyTimes()
	m.EXPECT().Pending().Return(true).AnyTimes()
	m.EXPECT().PopBeat().DoAndReturn(func() *tlp.RequestBeat {
		return &tlp.RequestBeat{First: true, Last: true, Tag: tag}
	}).AnyTimes()
}

var _ = Describe("MasterArbiter", func() {
	var ctrl *gomock.Controller

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	// I7: within any window of >= 2*N granted TLPs, each requesting master
	// with a pending TLP is granted at least once.
	It("grants every pending master within one round, §4.7/I7", func() {
		a := NewMockRequestSource(ctrl)
		b := NewMockRequestSource(ctrl)
		singleBeatSource(a, "a", 1)
		singleBeatSource(b, "b", 2)

		m := arbiter.NewMasterArbiter(64, a, b)

		grants := map[uint8]int{}
		for i := 0; i < 8; i++ {
			Expect(m.Tick()).To(BeTrue())
			out := m.Pop()
			Expect(out).NotTo(BeNil())
			grants[out.Request.Tag]++
		}

		// Round-robin over two always-pending single-beat masters grants
		// each exactly once per two ticks; after 8 ticks both have been
		// granted exactly 4 times.
		Expect(grants[1]).To(Equal(4))
		Expect(grants[2]).To(Equal(4))
		Expect(m.Len()).To(Equal(0))
	})

	It("holds a grant until the current TLP's last beat before rotating", func() {
		a := NewMockRequestSource(ctrl)
		bSrc := NewMockRequestSource(ctrl)

		a.EXPECT().Name().Return("a").AnyTimes()
		bSrc.EXPECT().Name().Return("b").AnyTimes()

		// a has a two-beat TLP pending; b is pending too, but must not be
		// granted (PopBeat has no expectation) until a's TLP finishes.
		beats := []*tlp.RequestBeat{
			{First: true, Last: false},
			{First: false, Last: true},
		}
		idx := 0
		a.EXPECT().Pending().Return(true).AnyTimes()
		a.EXPECT().PopBeat().DoAndReturn(func() *tlp.RequestBeat {
			beat := beats[idx]
			idx++
			return beat
		}).Times(2)
		bSrc.EXPECT().Pending().Return(true).AnyTimes()

		m := arbiter.NewMasterArbiter(64, a, bSrc)

		Expect(m.Tick()).To(BeTrue())
		first := m.Pop()
		Expect(first.First).To(BeTrue())
		Expect(first.Last).To(BeFalse())

		Expect(m.Tick()).To(BeTrue())
		second := m.Pop()
		Expect(second.Last).To(BeTrue())
	})
})
