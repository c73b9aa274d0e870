package nand

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/internal/types"
)

const (
	goodBlk = types.BlockGood
	badBlk  = types.BlockBad
)

func TestBuildBlockMap(t *testing.T) {
	tests := []struct {
		name        string
		classes     []byte
		wantMapping []uint32
		wantP2L     []uint32
		wantBad     []uint32
	}{
		{
			name:        "all good",
			classes:     []byte{goodBlk, goodBlk, goodBlk},
			wantMapping: []uint32{0, 1, 2},
			wantP2L:     []uint32{0, 1, 2},
			wantBad:     []uint32{},
		},
		{
			name:        "bad blocks are skipped",
			classes:     []byte{goodBlk, badBlk, goodBlk, goodBlk, badBlk},
			wantMapping: []uint32{0, 2, 3},
			wantP2L:     []uint32{0, types.InvalidBlock, 1, 2, types.InvalidBlock},
			wantBad:     []uint32{1, 4},
		},
		{
			name:        "first block bad",
			classes:     []byte{badBlk, goodBlk},
			wantMapping: []uint32{1},
			wantP2L:     []uint32{types.InvalidBlock, 0},
			wantBad:     []uint32{0},
		},
		{
			name:        "all bad",
			classes:     []byte{badBlk, badBlk, badBlk},
			wantMapping: []uint32{},
			wantP2L:     []uint32{types.InvalidBlock, types.InvalidBlock, types.InvalidBlock},
			wantBad:     []uint32{0, 1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.classes)
			m := buildBlockMap(tt.classes, make([]uint32, n), make([]uint32, n))

			assert.Equal(t, tt.wantMapping, m.Mapping())
			assert.Equal(t, len(tt.wantMapping), m.GoodBlocks())
			assert.Equal(t, n, m.TotalBlocks())
			assert.Equal(t, tt.wantBad, m.BadBlocks())
			for phys, want := range tt.wantP2L {
				assert.Equal(t, want, m.PhysicalToLogical(uint32(phys)), "physical block %d", phys)
			}
		})
	}
}

func TestBlockMapProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(96)
		classes := make([]byte, n)
		good := 0
		for i := range classes {
			if rng.Intn(4) == 0 {
				classes[i] = types.BlockBad
				continue
			}
			classes[i] = types.BlockGood
			good++
		}

		m := buildBlockMap(classes, make([]uint32, n), make([]uint32, n))
		mapping := m.Mapping()

		require.Len(t, mapping, good)
		for i := 1; i < len(mapping); i++ {
			require.Less(t, mapping[i-1], mapping[i], "mapping must be strictly increasing")
		}

		for logical := range mapping {
			phys, err := m.LogicalToPhysical(uint64(logical))
			require.NoError(t, err)
			assert.False(t, m.IsBad(phys))
			assert.Equal(t, uint32(logical), m.PhysicalToLogical(phys))
		}
		for _, phys := range m.BadBlocks() {
			assert.Equal(t, types.InvalidBlock, m.PhysicalToLogical(phys))
		}

		_, err := m.LogicalToPhysical(uint64(good))
		assert.ErrorIs(t, err, boot.ErrGeometryExhausted)
	}
}

func TestBlockMapOutOfRange(t *testing.T) {
	m := buildBlockMap([]byte{goodBlk, badBlk}, make([]uint32, 2), make([]uint32, 2))

	assert.Equal(t, types.InvalidBlock, m.PhysicalToLogical(2))
	assert.True(t, m.IsBad(2))

	_, err := m.LogicalToPhysical(^uint64(0))
	assert.ErrorIs(t, err, boot.ErrGeometryExhausted)

	var empty BlockMap
	_, err = empty.LogicalToPhysical(0)
	assert.ErrorIs(t, err, boot.ErrGeometryExhausted)
	assert.Zero(t, empty.GoodBlocks())
}
