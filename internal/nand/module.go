package nand

import (
	"errors"

	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/internal/interfaces"
	"github.com/deploymenttheory/go-ibl/internal/types"
)

var (
	_ boot.Module = (*Session)(nil)
	_ boot.Peeker = (*Session)(nil)
)

// NewFactory returns a boot.Factory that creates a session on a fresh
// accessor each time the dispatcher asks for one.
func NewFactory(newAccessor func() interfaces.PageAccessor, opts ...Option) boot.Factory {
	return func() boot.Module {
		return NewSession(newAccessor(), opts...)
	}
}

// Open initializes the controller, scans the array for bad blocks, builds the
// translation tables and positions the session at the start of the image.
//
// cfg must be a Config or *Config. onComplete is kept for the lifetime of the
// session but never called: NAND reads complete synchronously.
//
// An array without a single good block opens successfully; the first read or
// seek then fails with boot.ErrGeometryExhausted. On any error everything
// acquired so far is released before returning.
func (s *Session) Open(cfg boot.Config, onComplete boot.AsyncCallback) (err error) {
	if s.state != StateUninitialized {
		return boot.NewConfigError(boot.OpOpen, "session already open")
	}

	info, err := deviceInfo(cfg)
	if err != nil {
		return err
	}

	s.resetCursor()
	s.info = info
	s.onComplete = onComplete

	defer func() {
		if err != nil {
			s.release()
		}
	}()

	if err := s.hw.Initialize(info); err != nil {
		return boot.NewHardwareError(boot.OpOpen, err)
	}
	s.hwOpen = true

	if s.page, err = s.alloc.Bytes(int(info.RawPageSize())); err != nil {
		return boot.NewAllocationError(boot.OpOpen, "page buffer", err)
	}
	if s.l2p, err = s.alloc.Words(int(info.TotalBlocks)); err != nil {
		return boot.NewAllocationError(boot.OpOpen, "logical to physical map", err)
	}
	if s.p2l, err = s.alloc.Words(int(info.TotalBlocks)); err != nil {
		return boot.NewAllocationError(boot.OpOpen, "physical to logical map", err)
	}
	if s.blocks, err = s.alloc.Bytes(int(info.TotalBlocks)); err != nil {
		return boot.NewAllocationError(boot.OpOpen, "block table", err)
	}

	s.state = StateScanning
	if _, err := scanBadBlocks(s.hw, info.Geometry, s.blocks, s.page); err != nil {
		return boot.NewHardwareError(boot.OpScan, err)
	}
	s.table = buildBlockMap(s.blocks, s.l2p, s.p2l)
	s.state = StatePositioned

	if err := s.seekTo(boot.OpOpen, 0); err != nil && !errors.Is(err, boot.ErrGeometryExhausted) {
		return err
	}
	return nil
}

// Close releases the controller and every table and buffer. It always
// succeeds and may be called after a failed Open.
func (s *Session) Close() error {
	s.release()
	return nil
}

func deviceInfo(cfg boot.Config) (types.DeviceInfo, error) {
	var info types.DeviceInfo
	switch c := cfg.(type) {
	case Config:
		info = c.DeviceInfo
	case *Config:
		if c == nil {
			return info, boot.NewConfigError(boot.OpOpen, "missing device description")
		}
		info = c.DeviceInfo
	default:
		return info, boot.NewConfigError(boot.OpOpen, "device description %T is not a NAND description", cfg)
	}
	if err := info.Validate(); err != nil {
		return info, boot.NewConfigError(boot.OpOpen, "%v", err)
	}
	return info, nil
}
