package loader

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOutOfBounds is returned when a write falls outside every RAM region.
var ErrOutOfBounds = errors.New("write outside target memory")

// Memory is the target address space an image is loaded into.
type Memory interface {
	Write(addr uint64, p []byte) error
}

// Region is a range of target RAM.
type Region struct {
	Base uint64 `mapstructure:"base" json:"base" yaml:"base"`
	Size uint64 `mapstructure:"size" json:"size" yaml:"size"`
}

func (r Region) contains(addr, n uint64) bool {
	return addr >= r.Base && n <= r.Size && addr-r.Base <= r.Size-n
}

type chunk struct {
	addr uint64
	data []byte
}

// SparseMemory records every write instead of backing the whole address
// space. Later writes win where they overlap earlier ones.
type SparseMemory struct {
	regions []Region
	chunks  []chunk
	written uint64
}

// NewSparseMemory creates an empty memory. With no regions every address is
// writable.
func NewSparseMemory(regions ...Region) *SparseMemory {
	return &SparseMemory{regions: regions}
}

func (m *SparseMemory) Write(addr uint64, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n := uint64(len(p))
	if addr+n < addr {
		return fmt.Errorf("%w: %d bytes at 0x%x wrap the address space", ErrOutOfBounds, n, addr)
	}
	if len(m.regions) > 0 {
		ok := false
		for _, r := range m.regions {
			if r.contains(addr, n) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%w: %d bytes at 0x%x", ErrOutOfBounds, n, addr)
		}
	}

	// Extend the previous chunk when writes are contiguous, which is the
	// common case for a streamed section.
	if last := len(m.chunks) - 1; last >= 0 {
		c := &m.chunks[last]
		if c.addr+uint64(len(c.data)) == addr {
			c.data = append(c.data, p...)
			m.written += n
			return nil
		}
	}
	m.chunks = append(m.chunks, chunk{addr: addr, data: append([]byte(nil), p...)})
	m.written += n
	return nil
}

// Read returns n bytes starting at addr. Bytes never written read as zero.
func (m *SparseMemory) Read(addr uint64, n int) []byte {
	out := make([]byte, n)
	end := addr + uint64(n)
	for _, c := range m.chunks {
		cEnd := c.addr + uint64(len(c.data))
		if cEnd <= addr || c.addr >= end {
			continue
		}
		lo, hi := max(addr, c.addr), min(end, cEnd)
		copy(out[lo-addr:hi-addr], c.data[lo-c.addr:hi-c.addr])
	}
	return out
}

// Extents returns the written ranges merged and in address order.
func (m *SparseMemory) Extents() []Region {
	if len(m.chunks) == 0 {
		return nil
	}
	spans := make([]Region, 0, len(m.chunks))
	for _, c := range m.chunks {
		spans = append(spans, Region{Base: c.addr, Size: uint64(len(c.data))})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Base < spans[j].Base })

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Base <= last.Base+last.Size {
			if end := s.Base + s.Size; end > last.Base+last.Size {
				last.Size = end - last.Base
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// BytesWritten returns the total number of bytes written, overlaps included.
func (m *SparseMemory) BytesWritten() uint64 {
	return m.written
}
