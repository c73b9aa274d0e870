// Package types holds the device descriptions shared by the boot media and
// their hardware back ends.
package types

import (
	"errors"
	"fmt"
	"math"
)

// Block classification values stored in the per-block table built at open.
const (
	BlockGood byte = 0x00
	BlockBad  byte = 0xFF
)

// ErasedByte is the value of an unprogrammed NAND byte. A bad-block marker is
// any other value at the marker position.
const ErasedByte byte = 0xFF

// InvalidBlock is returned by physical-to-logical translation for bad or
// unmapped physical blocks.
const InvalidBlock = ^uint32(0)

// BadBlockMarkerPages lists the pages whose marker byte is checked per block.
var BadBlockMarkerPages = [...]uint32{0, 1}

// Geometry describes the layout of a NAND array. It is fixed for the lifetime
// of a session.
type Geometry struct {
	// Bytes of user data per page
	PageSizeBytes uint32 `mapstructure:"page_size_bytes" json:"page_size_bytes" yaml:"page_size_bytes"`

	// Bytes per page reserved for ECC and the bad-block marker
	PageEccBytes uint32 `mapstructure:"page_ecc_bytes" json:"page_ecc_bytes" yaml:"page_ecc_bytes"`

	PagesPerBlock uint32 `mapstructure:"pages_per_block" json:"pages_per_block" yaml:"pages_per_block"`
	TotalBlocks   uint32 `mapstructure:"total_blocks" json:"total_blocks" yaml:"total_blocks"`
}

// Validate checks that the geometry can be scanned and addressed.
func (g Geometry) Validate() error {
	if g.PageSizeBytes == 0 {
		return errors.New("page size cannot be zero")
	}
	if g.PageEccBytes == 0 {
		return errors.New("page must carry at least one spare byte for the bad-block marker")
	}
	if g.PagesPerBlock < uint32(len(BadBlockMarkerPages)) {
		return fmt.Errorf("pages per block must be at least %d, got %d", len(BadBlockMarkerPages), g.PagesPerBlock)
	}
	if raw := uint64(g.PageSizeBytes) + uint64(g.PageEccBytes); raw > math.MaxUint32 {
		return fmt.Errorf("raw page size %d does not fit in 32 bits", raw)
	}
	return nil
}

// RawPageSize is the number of bytes transferred by a full page read.
func (g Geometry) RawPageSize() uint32 {
	return g.PageSizeBytes + g.PageEccBytes
}

// BlockSizeBytes is the user data capacity of one block.
func (g Geometry) BlockSizeBytes() uint64 {
	return uint64(g.PageSizeBytes) * uint64(g.PagesPerBlock)
}

// RawSizeBytes is the size of a full dump of the array, spare areas included.
func (g Geometry) RawSizeBytes() uint64 {
	return uint64(g.RawPageSize()) * uint64(g.PagesPerBlock) * uint64(g.TotalBlocks)
}

// DeviceInfo is the caller-supplied description of a NAND device handed to
// open. Geometry drives the translation layer; the remaining fields are passed
// through to the hardware accessor untouched.
type DeviceInfo struct {
	Geometry `mapstructure:",squash" yaml:",inline"`

	// Chip select line the device is wired to
	ChipSelect uint32 `mapstructure:"chip_select" json:"chip_select" yaml:"chip_select"`

	// Data bus width, 8 or 16
	BusWidthBits uint32 `mapstructure:"bus_width_bits" json:"bus_width_bits" yaml:"bus_width_bits"`
}
