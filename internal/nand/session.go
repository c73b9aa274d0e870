// Package nand implements the NAND boot medium: a bad-block aware translation
// layer that presents the good blocks of a raw NAND array as one contiguous,
// sequentially readable boot image.
//
// A Session scans the array when it is opened, builds the logical to physical
// block maps, and then serves reads from a single cached page, loading the next
// page whenever the file position crosses a page or block boundary.
package nand

import (
	"fmt"

	"github.com/deploymenttheory/go-ibl/internal/alloc"
	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/internal/interfaces"
	"github.com/deploymenttheory/go-ibl/internal/types"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateUninitialized is the state before Open and after Close
	StateUninitialized State = iota

	// StateScanning is held while Open classifies the blocks
	StateScanning

	// StatePositioned is the normal open state
	StatePositioned

	// StateFaulted follows a hardware error during a page load. Only Close
	// is accepted.
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateScanning:
		return "scanning"
	case StatePositioned:
		return "positioned"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config is the device description accepted by Session.Open.
type Config struct {
	types.DeviceInfo
}

// Medium implements boot.Config.
func (Config) Medium() boot.Medium {
	return boot.MediumNAND
}

// Session is one open NAND device. It is not safe for concurrent use.
type Session struct {
	hw    interfaces.PageAccessor
	alloc alloc.Allocator

	info       types.DeviceInfo
	onComplete boot.AsyncCallback
	state      State
	hwOpen     bool

	// Cursor. resident reports whether page holds (curBlock, curPage).
	fpos     int64
	curBlock uint64
	curPage  uint64
	resident bool

	page   []byte
	blocks []byte
	l2p    []uint32
	p2l    []uint32
	table  BlockMap
}

// Option configures a Session.
type Option func(*Session)

// WithAllocator makes the session take its tables and page buffer from a.
func WithAllocator(a alloc.Allocator) Option {
	return func(s *Session) {
		s.alloc = a
	}
}

// NewSession creates an unopened session on top of a hardware accessor.
func NewSession(hw interfaces.PageAccessor, opts ...Option) *Session {
	s := &Session{
		hw:    hw,
		alloc: alloc.NewHeap(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resetCursor()
	return s
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Position returns the current file position.
func (s *Session) Position() int64 {
	return s.fpos
}

// CachedPage returns the logical block and page the cursor addresses, and
// whether that page is resident in the page buffer.
func (s *Session) CachedPage() (block, page uint64, resident bool) {
	return s.curBlock, s.curPage, s.resident
}

// DeviceInfo returns the description the session was opened with.
func (s *Session) DeviceInfo() types.DeviceInfo {
	return s.info
}

// BlockMap returns the translation tables built by Open. The tables are only
// valid until Close.
func (s *Session) BlockMap() BlockMap {
	return s.table
}

func (s *Session) resetCursor() {
	s.fpos = -1
	s.curBlock = noPage
	s.curPage = noPage
	s.resident = false
}

// release closes the accessor and frees everything Open acquired. Buffers
// that were never obtained are skipped.
func (s *Session) release() {
	if s.hwOpen {
		s.hw.Close()
		s.hwOpen = false
	}
	if s.page != nil {
		s.alloc.FreeBytes(s.page)
		s.page = nil
	}
	if s.l2p != nil {
		s.alloc.FreeWords(s.l2p)
		s.l2p = nil
	}
	if s.p2l != nil {
		s.alloc.FreeWords(s.p2l)
		s.p2l = nil
	}
	if s.blocks != nil {
		s.alloc.FreeBytes(s.blocks)
		s.blocks = nil
	}
	s.table = BlockMap{}
	s.state = StateUninitialized
	s.onComplete = nil
	s.resetCursor()
}
