// Package i2c implements the I2C EEPROM boot medium. The image is read from a
// byte-addressed EEPROM in fixed-size bus transactions, with the most recent
// transaction cached.
package i2c

import (
	"github.com/deploymenttheory/go-ibl/internal/alloc"
	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/internal/interfaces"
	"github.com/deploymenttheory/go-ibl/internal/types"
)

var (
	_ boot.Module = (*Module)(nil)
	_ boot.Peeker = (*Module)(nil)
)

// Config is the device description accepted by Module.Open.
type Config struct {
	types.EEPROMInfo
}

// Medium implements boot.Config.
func (Config) Medium() boot.Medium {
	return boot.MediumI2C
}

// Module is an open EEPROM. It is not safe for concurrent use.
type Module struct {
	bus   interfaces.EEPROMBus
	alloc alloc.Allocator

	info       types.EEPROMInfo
	onComplete boot.AsyncCallback
	open       bool
	busOpen    bool

	// Position relative to DataAddress, and the cached transaction
	fpos      int64
	block     []byte
	blockBase int64
	blockLen  int
}

// NewModule creates an unopened module on bus. A nil allocator uses the heap.
func NewModule(bus interfaces.EEPROMBus, a alloc.Allocator) *Module {
	if a == nil {
		a = alloc.NewHeap()
	}
	return &Module{bus: bus, alloc: a, blockBase: -1}
}

// NewFactory returns a boot.Factory for the dispatcher.
func NewFactory(newBus func() interfaces.EEPROMBus) boot.Factory {
	return func() boot.Module {
		return NewModule(newBus(), nil)
	}
}

func (m *Module) Open(cfg boot.Config, onComplete boot.AsyncCallback) (err error) {
	if m.open {
		return boot.NewConfigError(boot.OpOpen, "module already open")
	}

	var info types.EEPROMInfo
	switch c := cfg.(type) {
	case Config:
		info = c.EEPROMInfo
	case *Config:
		if c == nil {
			return boot.NewConfigError(boot.OpOpen, "missing device description")
		}
		info = c.EEPROMInfo
	default:
		return boot.NewConfigError(boot.OpOpen, "device description %T is not an I2C description", cfg)
	}
	if err := info.Validate(); err != nil {
		return boot.NewConfigError(boot.OpOpen, "%v", err)
	}

	m.info = info
	m.onComplete = onComplete
	defer func() {
		if err != nil {
			m.release()
		}
	}()

	if err := m.bus.Initialize(info); err != nil {
		return boot.NewHardwareError(boot.OpOpen, err)
	}
	m.busOpen = true

	if m.block, err = m.alloc.Bytes(int(info.BlockSizeBytes)); err != nil {
		return boot.NewAllocationError(boot.OpOpen, "transfer buffer", err)
	}

	m.open = true
	m.fpos = 0
	m.blockBase = -1
	return nil
}

func (m *Module) Close() error {
	m.release()
	return nil
}

func (m *Module) release() {
	if m.busOpen {
		m.bus.Close()
		m.busOpen = false
	}
	if m.block != nil {
		m.alloc.FreeBytes(m.block)
		m.block = nil
	}
	m.open = false
	m.onComplete = nil
	m.blockBase = -1
	m.blockLen = 0
}

// imageSize is the number of bytes between the data address and the end of
// the device.
func (m *Module) imageSize() int64 {
	return int64(m.info.SizeBytes) - int64(m.info.DataAddress)
}

func (m *Module) Seek(offset int64, whence boot.Whence) error {
	if !m.open {
		return boot.NewConfigError(boot.OpSeek, "module is not open")
	}
	var pos int64
	switch whence {
	case boot.SeekStart:
		pos = offset
	case boot.SeekCurrent:
		pos = m.fpos + offset
	default:
		return boot.NewConfigError(boot.OpSeek, "unsupported origin %s", whence)
	}
	if pos < 0 {
		return boot.NewConfigError(boot.OpSeek, "negative position %d", pos)
	}
	m.fpos = pos
	return nil
}

func (m *Module) Read(p []byte) error {
	if !m.open {
		return boot.NewConfigError(boot.OpRead, "module is not open")
	}
	return m.copyOut(boot.OpRead, p)
}

// Peek reads without moving the position. The transaction cache keeps the
// bytes peeked at, so a following Read does not touch the bus again unless
// the peek spanned several transactions.
func (m *Module) Peek(p []byte) error {
	if !m.open {
		return boot.NewConfigError(boot.OpPeek, "module is not open")
	}
	pos := m.fpos
	err := m.copyOut(boot.OpPeek, p)
	m.fpos = pos
	return err
}

func (m *Module) copyOut(op string, p []byte) error {
	bs := int64(m.info.BlockSizeBytes)
	for len(p) > 0 {
		base := m.fpos - m.fpos%bs
		if base != m.blockBase {
			if err := m.fetch(op, base); err != nil {
				return err
			}
		}
		off := int(m.fpos - base)
		if off >= m.blockLen {
			return boot.NewGeometryError(op, "position %d beyond the %d byte image", m.fpos, m.imageSize())
		}
		n := copy(p, m.block[off:m.blockLen])
		p = p[n:]
		m.fpos += int64(n)
	}
	return nil
}

func (m *Module) fetch(op string, base int64) error {
	size := m.imageSize()
	if base >= size {
		return boot.NewGeometryError(op, "position %d beyond the %d byte image", m.fpos, size)
	}
	n := int64(len(m.block))
	if base+n > size {
		n = size - base
	}

	m.blockBase = -1
	if err := m.bus.Read(m.info.BusAddress, m.info.DataAddress+uint32(base), m.block[:n]); err != nil {
		return boot.NewHardwareError(op, err)
	}
	m.blockBase = base
	m.blockLen = int(n)
	return nil
}

// Query returns the bytes left in the cached transaction at the current
// position.
func (m *Module) Query() int {
	if m.blockBase < 0 || m.fpos < m.blockBase || m.fpos >= m.blockBase+int64(m.blockLen) {
		return 0
	}
	return int(m.blockBase + int64(m.blockLen) - m.fpos)
}

// Position returns the current offset within the image.
func (m *Module) Position() int64 {
	return m.fpos
}
