// Package id generates unique identifiers for events and messages,
// mirroring akita's sim/id generator.
package id

import "github.com/rs/xid"

// Generator produces globally unique string IDs.
type Generator interface {
	Generate() string
}

type xidGenerator struct{}

// Generate returns a new globally unique ID.
func (xidGenerator) Generate() string {
	return xid.New().String()
}

var defaultGenerator Generator = xidGenerator{}

// GetGenerator returns the default ID generator.
func GetGenerator() Generator {
	return defaultGenerator
}
