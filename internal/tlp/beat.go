// Package tlp defines the beat-level representation of PCIe Transaction
// Layer Packets that flows between the core's components, and the
// header-level codec needed to stay bit-exact at the TLP boundary.
//
// A TLP is modeled as a sequence of Beat values rather than a raw byte
// slice: every §4 component reasons about streams of beats (first/last
// markers, per-beat byte enables, per-beat auxiliary PASID fields), and the
// depacketizer/packetizer that would turn beats into wire bytes is an
// external collaborator per §6.4.
package tlp

import "github.com/bsapcie/exerciser/internal/simcore"

// AddrType is the 2-bit PCIe Address Type field.
type AddrType uint8

// Address types from §6.3 / PCIe base spec table 2-10.
const (
	AddrDefault      AddrType = 0
	AddrUntranslated AddrType = 1
	AddrTranslated   AddrType = 2
	AddrReserved     AddrType = 3
)

// Attr bits, §3.
const (
	AttrNoSnoop       = 1 << 0
	AttrRelaxedOrder  = 1 << 1
	AttrIDO           = 1 << 2
)

// RequestBeat is one element of an inbound or outbound request TLP stream,
// per §3 "Request beat".
type RequestBeat struct {
	simcore.MsgMeta

	We       bool   // 1 = write, 0 = read
	Adr      uint64 // byte address
	Len      uint16 // 10-bit DWORD count; 0 means 1024 DW
	Tag      uint8
	ReqID    uint16 // Bus/Dev/Func
	FirstBE  uint8  // 4-bit
	LastBE   uint8  // 4-bit
	Dat      uint32 // this beat's DWORD
	BE       uint8  // byte enables for this beat
	BarHit   uint8  // 6-bit one-hot, RX only
	Attr     uint8  // 3-bit
	At       AddrType

	PasidEn    bool
	PasidVal   uint32 // 20-bit
	Privileged bool
	Execute    bool

	First bool
	Last  bool
}

// Meta satisfies simcore.Msg.
func (b *RequestBeat) Meta() *simcore.MsgMeta { return &b.MsgMeta }

// LenDW returns the DWORD count encoded by Len, expanding the zero-means-
// 1024 encoding from §3.
func (b *RequestBeat) LenDW() int {
	if b.Len == 0 {
		return 1024
	}
	return int(b.Len)
}

// EncodeLenField returns the 10-bit TLP length field for n DWORDs, encoding
// 1024 as 0 per §3 / B3.
func EncodeLenField(n int) uint16 {
	if n == 1024 {
		return 0
	}
	return uint16(n)
}

// CompletionBeat mirrors a request beat but carries completer/status
// fields, per §3 "Completion beat".
type CompletionBeat struct {
	simcore.MsgMeta

	CmpID uint16 // completer ID
	ReqID uint16
	Tag   uint8

	Dat uint32
	BE  uint8

	End bool // last completion for the request
	Err bool // completion carries an error status

	LenRemaining uint16 // DWORDs remaining, including this beat

	First bool
	Last  bool
}

// Meta satisfies simcore.Msg.
func (c *CompletionBeat) Meta() *simcore.MsgMeta { return &c.MsgMeta }
