package tlp

// Header-level encode/decode for the portion of the TLP boundary this core
// is responsible for (§6.3). Bit positions follow the PCIe base
// specification, the same convention the non-teacher reference codec
// (pcie.TlpHeader in the retrieved example pack) uses for its DW0/DW1/DW2
// packing; this file re-derives the subset of that packing relevant to
// Memory Read/Write and Completion TLPs, expressed over RequestBeat /
// CompletionBeat rather than a raw byte buffer.

// Fmt/Type encodings, mirroring the reference codec's TlpType constants.
const (
	fmt3DWNoData   = 0b000
	fmt3DWWithData = 0b010
	fmtMessage     = 0b001 // 4DW no data, used for the ATS invalidation completion
)

const (
	typeMem  = 0b00000
	typeMsgATS = 0b10010
)

// RequestHeaderDW0 packs the first header DWORD of a Memory Read/Write TLP:
// fmt/type in [31:24], attr bits in [13:12] (No-Snoop/Relaxed-Ordering),
// IDO in [18], length in [9:0].
func RequestHeaderDW0(we bool, attr uint8, lenDW int) uint32 {
	format := fmt3DWNoData
	if we {
		format = fmt3DWWithData
	}
	var dw0 uint32
	dw0 |= uint32(format) << 29
	dw0 |= uint32(typeMem) << 24
	dw0 |= (uint32(attr) & 0x3) << 12
	dw0 |= (uint32(attr) >> 2 & 0x1) << 18
	dw0 |= uint32(EncodeLenField(lenDW)) & 0x3FF
	return dw0
}

// RequestHeaderAddrType returns the 2-bit Address Type field, unshifted;
// the base spec places it in DW0 bits [11:10].
func RequestHeaderAddrType(at AddrType) uint32 {
	return uint32(at) & 0x3
}

// RequestHeaderDW1 packs requester_id in [31:16], tag in [15:8], last_be in
// [7:4] and first_be in [3:0].
func RequestHeaderDW1(reqID uint16, tag, firstBE, lastBE uint8) uint32 {
	var dw1 uint32
	dw1 |= uint32(reqID) << 16
	dw1 |= uint32(tag) << 8
	dw1 |= (uint32(lastBE) & 0xF) << 4
	dw1 |= uint32(firstBE) & 0xF
	return dw1
}

// CompletionHeaderDW1 packs byte_count/status for a completion, mirroring
// the reference codec's CplHeader packing.
func CompletionHeaderDW1(byteCount uint16, status uint8) uint32 {
	var dw1 uint32
	dw1 |= (uint32(status) & 0x7) << 13
	dw1 |= uint32(byteCount) & 0xFFF
	return dw1
}

// CompletionHeaderDW2 packs requester_id/tag/lower_address.
func CompletionHeaderDW2(reqID uint16, tag uint8, lowerAddr uint8) uint32 {
	var dw2 uint32
	dw2 |= uint32(reqID) << 16
	dw2 |= uint32(tag) << 8
	dw2 |= uint32(lowerAddr) & 0x7F
	return dw2
}

// CplCalcByteCount returns the number of bytes a completion for a request
// with the given first/last byte enables and DWORD length actually
// transfers, mirroring the reference codec's CplCalcByteCount lookup logic
// for the edge cases where first_be has leading zero bits or last_be has
// trailing zero bits.
func CplCalcByteCount(firstBE, lastBE uint8, lenDW int) int {
	if lenDW == 1 {
		return popcount4(firstBE)
	}
	first := firstLeadingZeroNibble(firstBE)
	last := lastTrailingZeroNibble(lastBE)
	return lenDW*4 - first - last
}

// CplCalcLowerAddress returns the low 7 bits of the address of the first
// enabled byte, mirroring the reference codec's CplCalcLowerAddress.
func CplCalcLowerAddress(firstBE uint8, addrLow7 uint8) uint8 {
	return (addrLow7 &^ 0x3) | uint8(firstLeadingZeroNibble(firstBE))&0x3
}

func popcount4(nibble uint8) int {
	n := 0
	for i := 0; i < 4; i++ {
		if nibble&(1<<i) != 0 {
			n++
		}
	}
	return n
}

func firstLeadingZeroNibble(be uint8) int {
	for i := 0; i < 4; i++ {
		if be&(1<<i) != 0 {
			return i
		}
	}
	return 4
}

func lastTrailingZeroNibble(be uint8) int {
	for i := 3; i >= 0; i-- {
		if be&(1<<i) != 0 {
			return 3 - i
		}
	}
	return 4
}

// ATSInvalidationCompletionHeader packs the 4-DWORD message header for the
// ATS Invalidation Completion message, per §4.6: fmt=0b001, type=0b10010,
// DW0 (fmt<<29)|(type<<24), DW1 (req_id<<16)|(tag<<8)|0x02, DW2/DW3
// reserved.
func ATSInvalidationCompletionHeader(reqID uint16, tag uint8) [4]uint32 {
	var hdr [4]uint32
	hdr[0] = uint32(fmtMessage)<<29 | uint32(typeMsgATS)<<24
	hdr[1] = uint32(reqID)<<16 | uint32(tag)<<8 | 0x02
	hdr[2] = 0
	hdr[3] = 0
	return hdr
}
