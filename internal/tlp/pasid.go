package tlp

// E2EPasidPrefix builds the 32-bit End-to-End PASID TLP prefix DWORD per
// §6.3: bits [31:24] = 0x91, [21] PMR (privileged), [20] Execute,
// [19:0] PASID value; bits [23:22] reserved zero.
func E2EPasidPrefix(privileged, execute bool, pasidVal uint32) uint32 {
	dw := uint32(0x91) << 24
	if privileged {
		dw |= 1 << 21
	}
	if execute {
		dw |= 1 << 20
	}
	dw |= pasidVal & 0xFFFFF
	return dw
}
