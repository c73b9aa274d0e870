package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-ibl/internal/types"
)

func newTestChip(t *testing.T) *NANDChip {
	t.Helper()
	img, err := BuildNANDImage(NANDImageSpec{Geometry: testGeometry, BadBlocks: []uint32{2}, Payload: []byte("abcdefghijklmnop")})
	require.NoError(t, err)
	chip, err := NewNANDChip(testGeometry, img)
	require.NoError(t, err)
	return chip
}

func TestNANDChipRequiresInitialize(t *testing.T) {
	chip := newTestChip(t)
	out := make([]byte, testGeometry.RawPageSize())

	assert.ErrorIs(t, chip.ReadPage(0, 0, out), ErrNotInitialized)

	wrong := testGeometry
	wrong.TotalBlocks = 8
	assert.ErrorIs(t, chip.Initialize(types.DeviceInfo{Geometry: wrong}), ErrGeometryMismatch)
	assert.False(t, chip.Initialized())

	require.NoError(t, chip.Initialize(types.DeviceInfo{Geometry: testGeometry}))
	assert.True(t, chip.Initialized())
	chip.Close()
	assert.False(t, chip.Initialized())
}

func TestNANDChipReads(t *testing.T) {
	chip := newTestChip(t)
	require.NoError(t, chip.Initialize(types.DeviceInfo{Geometry: testGeometry}))

	out := make([]byte, testGeometry.RawPageSize())
	require.NoError(t, chip.ReadPage(0, 1, out))
	assert.Equal(t, []byte("ijklmnop"), out[:8])

	marker := make([]byte, 1)
	require.NoError(t, chip.ReadBytes(2, 0, 8, 1, marker))
	assert.Equal(t, byte(0x00), marker[0])
	require.NoError(t, chip.ReadBytes(0, 0, 8, 1, marker))
	assert.Equal(t, byte(0xFF), marker[0])

	assert.ErrorIs(t, chip.ReadPage(4, 0, out), ErrAddressRange)
	assert.ErrorIs(t, chip.ReadBytes(0, 0, 9, 2, marker), ErrAddressRange)
	assert.Error(t, chip.ReadPage(0, 0, out[:4]))

	stats := chip.Stats()
	assert.Equal(t, uint64(1), stats.PageReads)
	assert.Equal(t, uint64(2), stats.ByteReads)
	assert.Equal(t, uint64(3), stats.Failures)
	assert.Equal(t, []PageAddress{{Block: 0, Page: 1}}, chip.PageTrace())

	chip.ResetStats()
	assert.Zero(t, chip.Stats())
	assert.Empty(t, chip.PageTrace())
}

func TestNANDChipFaults(t *testing.T) {
	boom := errors.New("boom")
	chip := newTestChip(t)
	out := make([]byte, testGeometry.RawPageSize())

	chip.FailInitialize(boom)
	assert.ErrorIs(t, chip.Initialize(types.DeviceInfo{Geometry: testGeometry}), boom)
	chip.FailInitialize(nil)
	require.NoError(t, chip.Initialize(types.DeviceInfo{Geometry: testGeometry}))

	chip.FailPage(1, 0, boom)
	assert.ErrorIs(t, chip.ReadPage(1, 0, out), boom)
	assert.NoError(t, chip.ReadPage(1, 1, out))
	chip.FailPage(1, 0, nil)
	assert.NoError(t, chip.ReadPage(1, 0, out))

	chip.FailAfter(2, boom)
	assert.NoError(t, chip.ReadPage(0, 0, out))
	assert.NoError(t, chip.ReadBytes(0, 0, 0, 1, out))
	assert.ErrorIs(t, chip.ReadPage(0, 0, out), boom)
	chip.FailAfter(0, nil)
	assert.NoError(t, chip.ReadPage(0, 0, out))
}

func TestEEPROM(t *testing.T) {
	data := []byte("0123456789")
	e := NewEEPROM(0x50, data)
	info := types.EEPROMInfo{BusAddress: 0x50, SizeBytes: 10, BlockSizeBytes: 4}
	out := make([]byte, 4)

	assert.ErrorIs(t, e.Read(0x50, 0, out), ErrNotInitialized)

	big := info
	big.SizeBytes = 11
	assert.Error(t, e.Initialize(big))

	require.NoError(t, e.Initialize(info))
	require.NoError(t, e.Read(0x50, 3, out))
	assert.Equal(t, []byte("3456"), out)

	assert.Error(t, e.Read(0x51, 0, out))
	assert.ErrorIs(t, e.Read(0x50, 8, out), ErrAddressRange)

	boom := errors.New("arbitration lost")
	e.Fail(boom)
	assert.ErrorIs(t, e.Read(0x50, 0, out), boom)

	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.ByteReads)
	assert.Equal(t, uint64(4), stats.BytesTransferred)
	assert.Equal(t, uint64(4), stats.Failures)
}
