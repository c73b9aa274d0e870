package sim

import (
	"fmt"
	"sync"

	"github.com/deploymenttheory/go-ibl/internal/interfaces"
	"github.com/deploymenttheory/go-ibl/internal/types"
)

var (
	_ interfaces.EEPROMBus     = (*EEPROM)(nil)
	_ interfaces.StatsReporter = (*EEPROM)(nil)
)

// EEPROM is an EEPROMBus with a single device on it.
type EEPROM struct {
	mu sync.Mutex

	busAddress  uint16
	data        []byte
	release     func() error
	initialized bool
	failErr     error
	stats       interfaces.AccessStats
}

// NewEEPROM creates a device answering at busAddress with the given contents.
func NewEEPROM(busAddress uint16, data []byte) *EEPROM {
	return &EEPROM{
		busAddress: busAddress,
		data:       data,
		release:    func() error { return nil },
	}
}

// OpenEEPROMImage maps an EEPROM image file. Call Release when done.
func OpenEEPROMImage(path string, busAddress uint16) (*EEPROM, error) {
	data, release, err := mapImage(path)
	if err != nil {
		return nil, err
	}
	e := NewEEPROM(busAddress, data)
	e.release = release
	return e, nil
}

// Fail makes every read return err. nil clears it.
func (e *EEPROM) Fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failErr = err
}

func (e *EEPROM) Initialize(info types.EEPROMInfo) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if uint64(info.SizeBytes) > uint64(len(e.data)) {
		return fmt.Errorf("device holds %d bytes, description claims %d", len(e.data), info.SizeBytes)
	}
	e.initialized = true
	return nil
}

func (e *EEPROM) Read(busAddr uint16, memAddr uint32, out []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case !e.initialized:
		e.stats.Failures++
		return ErrNotInitialized
	case e.failErr != nil:
		e.stats.Failures++
		return e.failErr
	case busAddr != e.busAddress:
		e.stats.Failures++
		return fmt.Errorf("no acknowledge from bus address 0x%02x", busAddr)
	case uint64(memAddr)+uint64(len(out)) > uint64(len(e.data)):
		e.stats.Failures++
		return fmt.Errorf("%w: %d bytes at 0x%x", ErrAddressRange, len(out), memAddr)
	}

	copy(out, e.data[memAddr:])
	e.stats.ByteReads++
	e.stats.BytesTransferred += uint64(len(out))
	return nil
}

func (e *EEPROM) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false
}

// Release unmaps an image opened with OpenEEPROMImage.
func (e *EEPROM) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false
	err := e.release()
	e.release = func() error { return nil }
	e.data = nil
	return err
}

func (e *EEPROM) Stats() interfaces.AccessStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
