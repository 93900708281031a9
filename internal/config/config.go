// Package config loads the values the §6.4 collaborators would otherwise
// supply: BAR base addresses, endpoint identity, ATS enablement, and the
// link's negotiated payload/request-size limits. In a full system these
// come from the configuration-space collaborator and PCI enumeration; here
// they start from Default(), and MPS, MRRS, the endpoint ID and ATS
// enablement can be overridden through the environment (optionally via a
// .env file loaded with godotenv, mirroring how a standalone akita-based
// simulator is normally launched) so the core can be driven standalone or
// under test. BAR bases and the DMA timeout always keep their defaults.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every collaborator-supplied value the core reads, §6.4.
type Config struct {
	// BAR base addresses, used by BARDispatcher and the BAR1 handler to
	// turn an absolute address into a BAR-relative offset.
	BAR0Base uint64
	BAR1Base uint64
	BAR2Base uint64
	BAR5Base uint64

	// EndpointID is the 16-bit req_id used when RID override is inactive.
	EndpointID uint16

	// ATSEnabled mirrors the ATS-ECAP enable bit held by the
	// configuration-space collaborator, §4.5.
	ATSEnabled bool

	// MaxPayloadSize / MaxRequestSize are 9-bit values in bytes, §6.4.
	MaxPayloadSize  uint32
	MaxRequestSize  uint32

	// DMATimeoutTicks bounds an outstanding DMA read completion, §4.4.
	// Expressed in internal ticks rather than wall-clock time, per §5's
	// note that the default 1ms host-facing timeout is "model-defined in
	// simulated ticks".
	DMATimeoutTicks int
}

// Default returns the configuration used when no environment overrides are
// present: BAR bases at conventional test offsets, ATS enabled, 256B MPS
// and MRRS, and a 4096-tick DMA timeout.
func Default() Config {
	return Config{
		BAR0Base:        0x0,
		BAR1Base:        0x1_0000,
		BAR2Base:        0x2_0000,
		BAR5Base:        0x5_0000,
		EndpointID:      0x0100,
		ATSEnabled:      true,
		MaxPayloadSize:  256,
		MaxRequestSize:  256,
		DMATimeoutTicks: 4096,
	}
}

// Load returns Default() overridden by BSAPCIE_MPS, BSAPCIE_MRRS,
// BSAPCIE_ENDPOINT_ID and BSAPCIE_ATS_ENABLED where set, after loading a
// .env file from the working directory if one is present. No other
// variable is read.
func Load() Config {
	_ = godotenv.Load()

	c := Default()
	if v, ok := lookupUint("BSAPCIE_MPS"); ok {
		c.MaxPayloadSize = v
	}
	if v, ok := lookupUint("BSAPCIE_MRRS"); ok {
		c.MaxRequestSize = v
	}
	if v, ok := lookupUint("BSAPCIE_ENDPOINT_ID"); ok {
		c.EndpointID = uint16(v)
	}
	if v, ok := os.LookupEnv("BSAPCIE_ATS_ENABLED"); ok {
		c.ATSEnabled = v != "0"
	}
	return c
}

func lookupUint(name string) (uint32, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
