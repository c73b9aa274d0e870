package nand

import (
	"github.com/deploymenttheory/go-ibl/internal/interfaces"
	"github.com/deploymenttheory/go-ibl/internal/types"
)

// scanBadBlocks classifies every physical block. A block is bad when the
// first spare byte of page 0 or page 1 is not erased. scratch must hold one
// byte per marker page. The first hardware error aborts the scan and is
// returned as is.
func scanBadBlocks(hw interfaces.PageAccessor, g types.Geometry, classes, scratch []byte) (bad int, err error) {
	for block := uint32(0); block < g.TotalBlocks; block++ {
		for i, page := range types.BadBlockMarkerPages {
			if err := hw.ReadBytes(block, page, g.PageSizeBytes, 1, scratch[i:i+1]); err != nil {
				return bad, err
			}
		}

		classes[block] = types.BlockGood
		for i := range types.BadBlockMarkerPages {
			if scratch[i] != types.ErasedByte {
				classes[block] = types.BlockBad
				bad++
				break
			}
		}
	}
	return bad, nil
}
