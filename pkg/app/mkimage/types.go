package mkimage

import (
	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/internal/types"
)

// Request represents the creation of a boot medium image
type Request struct {
	Medium     boot.Medium
	OutputPath string
	Payload    []byte

	// Wrap the payload in a single section boot table
	BootTable   bool
	LoadAddress uint32
	Entry       uint32

	// Payload is a stream of little-endian 32-bit words to store big-endian
	SwapWords bool

	NAND      types.Geometry
	BadBlocks []uint32

	EEPROM types.EEPROMInfo
}

// Response represents the created image
type Response struct {
	Path         string      `json:"path" yaml:"path"`
	Medium       boot.Medium `json:"medium" yaml:"medium"`
	ImageBytes   int         `json:"image_bytes" yaml:"image_bytes"`
	PayloadBytes int         `json:"payload_bytes" yaml:"payload_bytes"`
	BadBlocks    []uint32    `json:"bad_blocks,omitempty" yaml:"bad_blocks,omitempty"`
}
