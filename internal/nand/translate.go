package nand

import (
	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/internal/types"
)

// noPage marks a cursor that has not addressed any page yet.
const noPage = ^uint64(0)

// BlockMap translates between logical block numbers, which count only the
// good blocks, and physical block numbers on the chip.
type BlockMap struct {
	classes []byte
	l2p     []uint32
	p2l     []uint32
}

// buildBlockMap fills l2p and p2l from the classification table. l2p must
// have room for every block; the returned map only exposes the good prefix.
func buildBlockMap(classes []byte, l2p, p2l []uint32) BlockMap {
	good := 0
	for phys, class := range classes {
		if class == types.BlockBad {
			p2l[phys] = types.InvalidBlock
			continue
		}
		l2p[good] = uint32(phys)
		p2l[phys] = uint32(good)
		good++
	}
	return BlockMap{
		classes: classes,
		l2p:     l2p[:good],
		p2l:     p2l,
	}
}

func (m BlockMap) lookup(logical uint64) (uint32, bool) {
	if logical >= uint64(len(m.l2p)) {
		return 0, false
	}
	return m.l2p[logical], true
}

// LogicalToPhysical returns the physical block holding a logical block.
func (m BlockMap) LogicalToPhysical(logical uint64) (uint32, error) {
	phys, ok := m.lookup(logical)
	if !ok {
		return 0, boot.NewGeometryError("translate", "logical block %d beyond the %d good blocks", logical, len(m.l2p))
	}
	return phys, nil
}

// PhysicalToLogical returns the logical number of a physical block, or
// types.InvalidBlock if the block is bad or does not exist.
func (m BlockMap) PhysicalToLogical(phys uint32) uint32 {
	if uint64(phys) >= uint64(len(m.p2l)) {
		return types.InvalidBlock
	}
	return m.p2l[phys]
}

// IsBad reports whether a physical block was classified bad. Blocks outside
// the array are bad.
func (m BlockMap) IsBad(phys uint32) bool {
	if uint64(phys) >= uint64(len(m.classes)) {
		return true
	}
	return m.classes[phys] == types.BlockBad
}

// GoodBlocks returns the number of logical blocks.
func (m BlockMap) GoodBlocks() int {
	return len(m.l2p)
}

// TotalBlocks returns the number of physical blocks scanned.
func (m BlockMap) TotalBlocks() int {
	return len(m.classes)
}

// BadBlocks returns the physical numbers of the bad blocks in ascending order.
func (m BlockMap) BadBlocks() []uint32 {
	bad := make([]uint32, 0, len(m.classes)-len(m.l2p))
	for phys, class := range m.classes {
		if class == types.BlockBad {
			bad = append(bad, uint32(phys))
		}
	}
	return bad
}

// Mapping returns a copy of the logical to physical table.
func (m BlockMap) Mapping() []uint32 {
	out := make([]uint32, len(m.l2p))
	copy(out, m.l2p)
	return out
}
