package tlp

import "github.com/bsapcie/exerciser/internal/simcore"

// OutBeat is the unified representation of one beat on the TX-side main
// path: a completion (from CompletionArbiter), a request (from
// MasterArbiter), a synthesized PASID prefix beat (from PASIDInjector), or
// a raw message beat (from ATSInvalidationHandler's raw TX source).
// PASIDInjector and TxArbiter operate generically over OutBeat because
// §4.8's PASID fields "travel alongside" the beat regardless of its
// origin.
type OutBeat struct {
	simcore.MsgMeta

	First bool
	Last  bool

	PasidEn    bool
	PasidVal   uint32
	Privileged bool
	Execute    bool

	Request    *RequestBeat
	Completion *CompletionBeat

	// IsPrefix marks a synthesized beat carrying only the E2E PASID prefix
	// DWORD in PrefixDWord, emitted ahead of the TLP it applies to, §4.8.
	IsPrefix    bool
	PrefixDWord uint32

	// Message carries a raw, header-only TLP (currently only the ATS
	// Invalidation Completion message, §4.6) that bypasses the packetizer.
	Message *[4]uint32
}

// Meta satisfies simcore.Msg.
func (o *OutBeat) Meta() *simcore.MsgMeta { return &o.MsgMeta }

// FromRequest wraps a request beat as an OutBeat, carrying its PASID
// auxiliary fields.
func FromRequest(b *RequestBeat) *OutBeat {
	return &OutBeat{
		First:      b.First,
		Last:       b.Last,
		PasidEn:    b.PasidEn,
		PasidVal:   b.PasidVal,
		Privileged: b.Privileged,
		Execute:    b.Execute,
		Request:    b,
	}
}

// FromCompletion wraps a completion beat as an OutBeat. Completions never
// carry PASID fields of their own in this model.
func FromCompletion(c *CompletionBeat) *OutBeat {
	return &OutBeat{
		First:      c.First,
		Last:       c.Last,
		Completion: c,
	}
}

// FromMessage wraps a 4-DWORD message TLP header as a single-beat OutBeat,
// used by the ATS Invalidation Completion message, §4.6.
func FromMessage(hdr [4]uint32) *OutBeat {
	return &OutBeat{First: true, Last: true, Message: &hdr}
}

// NewPrefixBeat synthesizes the leading beat PASIDInjector emits ahead of a
// `pasid_en=1` TLP, carrying the E2E prefix DWORD, §4.8.
func NewPrefixBeat(prefix uint32) *OutBeat {
	return &OutBeat{First: true, Last: false, IsPrefix: true, PrefixDWord: prefix}
}
