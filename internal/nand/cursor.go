package nand

import (
	"errors"

	"github.com/deploymenttheory/go-ibl/internal/boot"
)

// ready rejects operations outside the positioned state.
func (s *Session) ready(op string) error {
	switch s.state {
	case StatePositioned:
		return nil
	case StateFaulted:
		return boot.NewConfigError(op, "session faulted by an earlier hardware error, only close is accepted")
	default:
		return boot.NewConfigError(op, "session is not open")
	}
}

// locate converts a file position to a logical block and page within it.
func (s *Session) locate(pos int64) (block, page uint64) {
	logicalPage := uint64(pos) / uint64(s.info.PageSizeBytes)
	return logicalPage / uint64(s.info.PagesPerBlock), logicalPage % uint64(s.info.PagesPerBlock)
}

// loadPage reads a logical page into the page buffer. A hardware error
// faults the session.
func (s *Session) loadPage(op string, block, page uint64) error {
	phys, ok := s.table.lookup(block)
	if !ok {
		return boot.NewGeometryError(op, "logical block %d beyond the %d good blocks", block, s.table.GoodBlocks())
	}
	if err := s.hw.ReadPage(phys, uint32(page), s.page); err != nil {
		s.state = StateFaulted
		return boot.NewHardwareError(op, err)
	}
	return nil
}

// Seek sets the file position and loads the page holding it. The position is
// updated even if the page load fails; the previously cached page is kept.
func (s *Session) Seek(offset int64, whence boot.Whence) error {
	if err := s.ready(boot.OpSeek); err != nil {
		return err
	}

	var pos int64
	switch whence {
	case boot.SeekStart:
		pos = offset
	case boot.SeekCurrent:
		pos = s.fpos + offset
		if (offset > 0 && pos < s.fpos) || (offset < 0 && pos > s.fpos) {
			return boot.NewConfigError(boot.OpSeek, "position overflow seeking %d from %d", offset, s.fpos)
		}
	default:
		return boot.NewConfigError(boot.OpSeek, "unsupported origin %s", whence)
	}
	if pos < 0 {
		return boot.NewConfigError(boot.OpSeek, "negative position %d", pos)
	}

	return s.seekTo(boot.OpSeek, pos)
}

func (s *Session) seekTo(op string, pos int64) error {
	block, page := s.locate(pos)
	s.fpos = pos

	if s.resident && block == s.curBlock && page == s.curPage {
		return nil
	}
	if err := s.loadPage(op, block, page); err != nil {
		return err
	}
	s.curBlock, s.curPage, s.resident = block, page, true
	return nil
}

// Read copies len(p) bytes from the file position and advances past them.
// Crossing a page boundary loads the next page, and crossing the last page of
// a block moves to the first page of the next logical block.
func (s *Session) Read(p []byte) error {
	if err := s.ready(boot.OpRead); err != nil {
		return err
	}
	return s.copyOut(boot.OpRead, p)
}

func (s *Session) copyOut(op string, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	// Normally a no-op. The addressed page is not resident after a read that
	// ended on the last good page or after a seek that failed to load.
	if err := s.seekTo(op, s.fpos); err != nil {
		return err
	}

	pageSize := int(s.info.PageSizeBytes)
	off := int(uint64(s.fpos) % uint64(pageSize))

	for len(p) > 0 {
		n := copy(p, s.page[off:pageSize])
		p = p[n:]
		s.fpos += int64(n)
		off += n

		if off < pageSize {
			continue
		}

		off = 0
		s.curPage++
		if s.curPage >= uint64(s.info.PagesPerBlock) {
			s.curPage = 0
			s.curBlock++
		}

		if err := s.loadPage(op, s.curBlock, s.curPage); err != nil {
			s.resident = false
			// Reading up to the very end of the good blocks is not an error;
			// the next access past it is.
			if len(p) == 0 && errors.Is(err, boot.ErrGeometryExhausted) {
				return nil
			}
			return err
		}
		s.resident = true
	}
	return nil
}

// Peek copies len(p) bytes from the file position without consuming them.
// If the copy moved the cache to another page, the original page is read back
// from the chip.
func (s *Session) Peek(p []byte) error {
	if err := s.ready(boot.OpPeek); err != nil {
		return err
	}

	origPos := s.fpos
	origBlock, origPage, origResident := s.curBlock, s.curPage, s.resident

	readErr := s.copyOut(boot.OpPeek, p)

	moved := !s.resident || s.curBlock != origBlock || s.curPage != origPage
	restored := origResident
	if origResident && moved {
		if err := s.loadPage(boot.OpRestore, origBlock, origPage); err != nil {
			s.fpos, s.curBlock, s.curPage, s.resident = origPos, origBlock, origPage, false
			return err
		}
	}

	s.fpos, s.curBlock, s.curPage, s.resident = origPos, origBlock, origPage, restored
	return readErr
}

// Query returns the number of bytes guaranteed to be available without
// touching the chip: one page.
func (s *Session) Query() int {
	return int(s.info.PageSizeBytes)
}
