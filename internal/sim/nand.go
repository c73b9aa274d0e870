// Package sim provides simulated boot hardware: a raw NAND array and an I2C
// EEPROM, backed by memory or by image files, with fault injection and access
// counters.
package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/deploymenttheory/go-ibl/internal/interfaces"
	"github.com/deploymenttheory/go-ibl/internal/types"
)

var (
	// ErrNotInitialized is returned by reads issued before Initialize
	ErrNotInitialized = errors.New("controller not initialized")

	// ErrAddressRange is returned for reads outside the array
	ErrAddressRange = errors.New("address outside the array")

	// ErrGeometryMismatch is returned by Initialize when the device
	// description does not match the image
	ErrGeometryMismatch = errors.New("device geometry does not match the image")
)

// PageAddress identifies one physical page.
type PageAddress struct {
	Block uint32
	Page  uint32
}

var (
	_ interfaces.PageAccessor  = (*NANDChip)(nil)
	_ interfaces.StatsReporter = (*NANDChip)(nil)
)

// NANDChip is a PageAccessor over a raw dump of a NAND array. Pages are laid
// out block by block, each page followed by its spare bytes.
type NANDChip struct {
	mu sync.Mutex

	geometry    types.Geometry
	data        []byte
	release     func() error
	initialized bool

	initErr   error
	faults    map[PageAddress]error
	failAfter int
	failErr   error
	reads     int
	trace     []PageAddress
	stats     interfaces.AccessStats
}

// NewNANDChip wraps a raw dump. data must be exactly g.RawSizeBytes() long.
func NewNANDChip(g types.Geometry, data []byte) (*NANDChip, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	if uint64(len(data)) != g.RawSizeBytes() {
		return nil, fmt.Errorf("image is %d bytes, geometry needs %d", len(data), g.RawSizeBytes())
	}
	return &NANDChip{
		geometry: g,
		data:     data,
		release:  func() error { return nil },
		faults:   make(map[PageAddress]error),
	}, nil
}

// OpenNANDImage maps a raw dump file. Call Release when done with the chip.
func OpenNANDImage(path string, g types.Geometry) (*NANDChip, error) {
	data, release, err := mapImage(path)
	if err != nil {
		return nil, err
	}
	chip, err := NewNANDChip(g, data)
	if err != nil {
		_ = release()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	chip.release = release
	return chip, nil
}

// Geometry returns the layout of the simulated array.
func (c *NANDChip) Geometry() types.Geometry {
	return c.geometry
}

// FailInitialize makes the next Initialize calls return err. nil clears it.
func (c *NANDChip) FailInitialize(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initErr = err
}

// FailPage makes every read of the page return err. nil clears it.
func (c *NANDChip) FailPage(block, page uint32, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	addr := PageAddress{Block: block, Page: page}
	if err == nil {
		delete(c.faults, addr)
		return
	}
	c.faults[addr] = err
}

// FailAfter lets the next n reads of either kind succeed and fails every
// later one with err. A nil err clears it.
func (c *NANDChip) FailAfter(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failErr = err
	c.failAfter = c.reads + n
}

// Initialize checks the description against the image.
func (c *NANDChip) Initialize(info types.DeviceInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initErr != nil {
		return c.initErr
	}
	if info.Geometry != c.geometry {
		return fmt.Errorf("%w: got %+v, image has %+v", ErrGeometryMismatch, info.Geometry, c.geometry)
	}
	c.initialized = true
	return nil
}

// ReadPage copies a full page including spare bytes.
func (c *NANDChip) ReadPage(block, page uint32, out []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw := c.geometry.RawPageSize()
	if uint32(len(out)) < raw {
		return c.fail(fmt.Errorf("page buffer is %d bytes, need %d", len(out), raw))
	}
	start, err := c.locate(block, page)
	if err != nil {
		return c.fail(err)
	}

	c.stats.PageReads++
	c.trace = append(c.trace, PageAddress{Block: block, Page: page})
	copy(out, c.data[start:start+uint64(raw)])
	c.stats.BytesTransferred += uint64(raw)
	return nil
}

// ReadBytes copies count bytes starting at offset within a page.
func (c *NANDChip) ReadBytes(block, page, offset, count uint32, out []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if uint64(offset)+uint64(count) > uint64(c.geometry.RawPageSize()) {
		return c.fail(fmt.Errorf("%w: %d bytes at offset %d of a %d byte page", ErrAddressRange, count, offset, c.geometry.RawPageSize()))
	}
	if uint32(len(out)) < count {
		return c.fail(fmt.Errorf("output buffer is %d bytes, need %d", len(out), count))
	}
	start, err := c.locate(block, page)
	if err != nil {
		return c.fail(err)
	}

	c.stats.ByteReads++
	start += uint64(offset)
	copy(out, c.data[start:start+uint64(count)])
	c.stats.BytesTransferred += uint64(count)
	return nil
}

// Close ends the controller session. The image stays mapped.
func (c *NANDChip) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialized = false
}

// Release unmaps an image opened with OpenNANDImage.
func (c *NANDChip) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialized = false
	err := c.release()
	c.release = func() error { return nil }
	c.data = nil
	return err
}

// Initialized reports whether the controller is between Initialize and Close.
func (c *NANDChip) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Stats returns the access counters.
func (c *NANDChip) Stats() interfaces.AccessStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// PageTrace returns the pages read with ReadPage, in order.
func (c *NANDChip) PageTrace() []PageAddress {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PageAddress, len(c.trace))
	copy(out, c.trace)
	return out
}

// ResetStats clears the counters and the page trace.
func (c *NANDChip) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = interfaces.AccessStats{}
	c.trace = nil
}

// locate checks the controller state and injected faults, and returns the
// offset of a page in the dump. Must be called with mu held.
func (c *NANDChip) locate(block, page uint32) (uint64, error) {
	c.reads++
	if !c.initialized {
		return 0, ErrNotInitialized
	}
	if c.failErr != nil && c.reads > c.failAfter {
		return 0, c.failErr
	}
	if err, ok := c.faults[PageAddress{Block: block, Page: page}]; ok {
		return 0, err
	}
	if block >= c.geometry.TotalBlocks || page >= c.geometry.PagesPerBlock {
		return 0, fmt.Errorf("%w: block %d page %d", ErrAddressRange, block, page)
	}
	index := uint64(block)*uint64(c.geometry.PagesPerBlock) + uint64(page)
	return index * uint64(c.geometry.RawPageSize()), nil
}

// must be called with mu held
func (c *NANDChip) fail(err error) error {
	c.stats.Failures++
	return err
}
