package scan

import (
	"time"

	"github.com/deploymenttheory/go-ibl/internal/interfaces"
	"github.com/deploymenttheory/go-ibl/internal/types"
)

// Request represents a bad block scan of a raw NAND dump
type Request struct {
	ImagePath string
	Device    types.DeviceInfo

	// Include the logical to physical table in the response
	ShowMapping bool
}

// Response represents the scan results
type Response struct {
	ImagePath   string                 `json:"image_path" yaml:"image_path"`
	Geometry    types.Geometry         `json:"geometry" yaml:"geometry"`
	TotalBlocks int                    `json:"total_blocks" yaml:"total_blocks"`
	GoodBlocks  int                    `json:"good_blocks" yaml:"good_blocks"`
	BadBlocks   []uint32               `json:"bad_blocks" yaml:"bad_blocks"`
	Mapping     []BlockMapping         `json:"mapping,omitempty" yaml:"mapping,omitempty"`
	UsableBytes uint64                 `json:"usable_bytes" yaml:"usable_bytes"`
	Stats       interfaces.AccessStats `json:"stats" yaml:"stats"`
	ScanTime    time.Duration          `json:"scan_time" yaml:"scan_time"`
}

// BlockMapping pairs a logical block with the physical block holding it
type BlockMapping struct {
	Logical  uint32 `json:"logical" yaml:"logical"`
	Physical uint32 `json:"physical" yaml:"physical"`
}

// BadPercent returns the share of bad blocks
func (r *Response) BadPercent() float64 {
	if r.TotalBlocks == 0 {
		return 0
	}
	return float64(len(r.BadBlocks)) * 100 / float64(r.TotalBlocks)
}
