// Package interfaces defines the contracts between the boot media and the
// hardware back ends that move bytes off the chips.
package interfaces

import (
	"github.com/deploymenttheory/go-ibl/internal/types"
)

// PageAccessor provides page-granular access to a raw NAND array. Every call
// blocks until the transfer completes or the hardware reports an error.
type PageAccessor interface {
	// Initialize prepares the controller for the described device
	Initialize(info types.DeviceInfo) error

	// ReadPage reads a full page, spare bytes included, into out. out must
	// hold at least PageSizeBytes+PageEccBytes bytes.
	ReadPage(block, page uint32, out []byte) error

	// ReadBytes reads count bytes starting at offset within a page into out
	ReadBytes(block, page, offset, count uint32, out []byte) error

	// Close releases the controller
	Close()
}

// EEPROMBus provides byte-addressed reads from an I2C EEPROM.
type EEPROMBus interface {
	// Initialize configures the bus for the described device
	Initialize(info types.EEPROMInfo) error

	// Read fills out with the bytes starting at memAddr on the device at busAddr
	Read(busAddr uint16, memAddr uint32, out []byte) error

	// Close releases the bus
	Close()
}

// AccessStats contains counters kept by hardware back ends
type AccessStats struct {
	// Full page reads issued
	PageReads uint64 `json:"page_reads" yaml:"page_reads"`

	// Partial (byte range) reads issued
	ByteReads uint64 `json:"byte_reads" yaml:"byte_reads"`

	// Total bytes transferred
	BytesTransferred uint64 `json:"bytes_transferred" yaml:"bytes_transferred"`

	// Reads that returned an error
	Failures uint64 `json:"failures" yaml:"failures"`
}

// StatsReporter is implemented by back ends that keep AccessStats
type StatsReporter interface {
	Stats() AccessStats
}
