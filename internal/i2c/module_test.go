package i2c

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-ibl/internal/alloc"
	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/internal/sim"
	"github.com/deploymenttheory/go-ibl/internal/types"
)

func testImage(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i * 3)
	}
	return out
}

// 256 byte device with the image starting at 0x20, fetched 16 bytes at a time
var testInfo = types.EEPROMInfo{
	BusAddress:     0x50,
	DataAddress:    0x20,
	SizeBytes:      256,
	BlockSizeBytes: 16,
}

func openModule(t *testing.T) (*Module, *sim.EEPROM, []byte) {
	t.Helper()
	data := testImage(256)
	dev := sim.NewEEPROM(testInfo.BusAddress, data)
	m := NewModule(dev, nil)
	require.NoError(t, m.Open(Config{EEPROMInfo: testInfo}, nil))
	t.Cleanup(func() { _ = m.Close() })
	return m, dev, data[testInfo.DataAddress:]
}

func TestReadAcrossTransactions(t *testing.T) {
	m, dev, image := openModule(t)

	buf := make([]byte, 40)
	require.NoError(t, m.Read(buf))
	assert.Equal(t, image[:40], buf)
	assert.Equal(t, int64(40), m.Position())

	// three 16 byte transactions
	assert.Equal(t, uint64(3), dev.Stats().ByteReads)
	assert.Equal(t, 8, m.Query())
}

func TestReadWholeImage(t *testing.T) {
	m, _, image := openModule(t)

	buf := make([]byte, len(image))
	require.NoError(t, m.Read(buf))
	assert.Equal(t, image, buf)

	assert.ErrorIs(t, m.Read(make([]byte, 1)), boot.ErrGeometryExhausted)
}

func TestPeekDoesNotConsume(t *testing.T) {
	m, dev, image := openModule(t)

	require.NoError(t, m.Seek(5, boot.SeekStart))
	peeked := make([]byte, 8)
	require.NoError(t, m.Peek(peeked))
	assert.Equal(t, int64(5), m.Position())
	reads := dev.Stats().ByteReads

	read := make([]byte, 8)
	require.NoError(t, m.Read(read))
	assert.Equal(t, peeked, read)
	assert.Equal(t, image[5:13], read)
	assert.Equal(t, reads, dev.Stats().ByteReads, "read after peek hit the bus")
}

func TestSeek(t *testing.T) {
	m, _, image := openModule(t)

	require.NoError(t, m.Seek(100, boot.SeekStart))
	require.NoError(t, m.Seek(-50, boot.SeekCurrent))

	buf := make([]byte, 4)
	require.NoError(t, m.Read(buf))
	assert.Equal(t, image[50:54], buf)

	assert.ErrorIs(t, m.Seek(-1, boot.SeekStart), boot.ErrConfig)
	assert.ErrorIs(t, m.Seek(0, boot.SeekEnd), boot.ErrConfig)
	assert.Equal(t, int64(54), m.Position())

	require.NoError(t, m.Seek(1000, boot.SeekStart))
	assert.ErrorIs(t, m.Read(buf), boot.ErrGeometryExhausted)
}

func TestQuery(t *testing.T) {
	m, _, _ := openModule(t)
	assert.Zero(t, m.Query(), "nothing fetched yet")

	require.NoError(t, m.Read(make([]byte, 3)))
	assert.Equal(t, 13, m.Query())

	// last transaction of the image
	require.NoError(t, m.Seek(220, boot.SeekStart))
	require.NoError(t, m.Read(make([]byte, 1)))
	assert.Equal(t, 3, m.Query())
}

func TestOpenErrors(t *testing.T) {
	t.Run("wrong description", func(t *testing.T) {
		m := NewModule(sim.NewEEPROM(0x50, testImage(256)), nil)
		assert.ErrorIs(t, m.Open(foreignConfig{}, nil), boot.ErrConfig)
	})

	t.Run("invalid description", func(t *testing.T) {
		m := NewModule(sim.NewEEPROM(0x50, testImage(256)), nil)
		info := testInfo
		info.BlockSizeBytes = 0
		assert.ErrorIs(t, m.Open(Config{EEPROMInfo: info}, nil), boot.ErrConfig)
	})

	t.Run("device smaller than described", func(t *testing.T) {
		m := NewModule(sim.NewEEPROM(0x50, testImage(128)), nil)
		assert.ErrorIs(t, m.Open(Config{EEPROMInfo: testInfo}, nil), boot.ErrHardware)
	})

	t.Run("allocation failure leaks nothing", func(t *testing.T) {
		dev := sim.NewEEPROM(0x50, testImage(256))
		tracker := alloc.NewTracker(nil)
		tracker.FailAt(1)

		m := NewModule(dev, tracker)
		assert.ErrorIs(t, m.Open(&Config{EEPROMInfo: testInfo}, nil), boot.ErrAllocation)
		assert.Zero(t, tracker.Outstanding())
		assert.ErrorIs(t, dev.Read(0x50, 0, make([]byte, 1)), sim.ErrNotInitialized)
	})

	t.Run("already open", func(t *testing.T) {
		m, _, _ := openModule(t)
		assert.ErrorIs(t, m.Open(Config{EEPROMInfo: testInfo}, nil), boot.ErrConfig)
	})
}

type foreignConfig struct{}

func (foreignConfig) Medium() boot.Medium { return boot.MediumNAND }

func TestBusErrors(t *testing.T) {
	m, dev, _ := openModule(t)
	boom := errors.New("arbitration lost")
	dev.Fail(boom)

	err := m.Read(make([]byte, 4))
	assert.ErrorIs(t, err, boot.ErrHardware)
	assert.ErrorIs(t, err, boom)

	dev.Fail(nil)
	assert.NoError(t, m.Read(make([]byte, 4)))
}

func TestCloseReleasesBuffer(t *testing.T) {
	tracker := alloc.NewTracker(nil)
	m := NewModule(sim.NewEEPROM(0x50, testImage(256)), tracker)

	require.NoError(t, m.Open(Config{EEPROMInfo: testInfo}, nil))
	assert.Equal(t, 1, tracker.Outstanding())
	require.NoError(t, m.Close())
	assert.Zero(t, tracker.Outstanding())
	assert.ErrorIs(t, m.Read(make([]byte, 1)), boot.ErrConfig)
}
