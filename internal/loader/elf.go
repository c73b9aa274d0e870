package loader

import (
	"context"
	"debug/elf"
	"errors"
	"fmt"
	"io"

	"k8s.io/klog/v2"

	"github.com/deploymenttheory/go-ibl/internal/boot"
)

// moduleReaderAt gives random access to a boot medium by seeking before each
// read. It is only as concurrent as the module beneath it, which is to say not
// at all.
type moduleReaderAt struct {
	mod boot.Module
}

func (r moduleReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := r.mod.Seek(off, boot.SeekStart); err != nil {
		if errors.Is(err, boot.ErrGeometryExhausted) {
			return 0, io.EOF
		}
		return 0, err
	}
	if err := r.mod.Read(p); err != nil {
		if errors.Is(err, boot.ErrGeometryExhausted) {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return len(p), nil
}

// loadELF copies every PT_LOAD segment to its physical address and zero fills
// the part of the segment not backed by the file.
func loadELF(ctx context.Context, mod boot.Module, mem Memory) (*Result, error) {
	f, err := elf.NewFile(moduleReaderAt{mod: mod})
	if err != nil {
		return nil, fmt.Errorf("parsing ELF header: %w", err)
	}
	defer f.Close()

	res := &Result{Format: FormatELF, Entry: f.Entry}
	for idx, prg := range f.Progs {
		if prg.Type != elf.PT_LOAD {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if prg.Filesz > prg.Memsz {
			return nil, fmt.Errorf("LOAD segment %d file size %d exceeds memory size %d", idx, prg.Filesz, prg.Memsz)
		}

		b := make([]byte, prg.Memsz)
		if prg.Filesz > 0 {
			if _, err := prg.ReadAt(b[:prg.Filesz], 0); err != nil {
				return nil, fmt.Errorf("reading LOAD segment %d: %w", idx, err)
			}
		}
		if err := mem.Write(prg.Paddr, b); err != nil {
			return nil, fmt.Errorf("LOAD segment %d: %w", idx, err)
		}

		klog.V(2).InfoS("Loaded ELF segment", "index", idx, "address", fmt.Sprintf("0x%x", prg.Paddr), "fileSize", prg.Filesz, "memSize", prg.Memsz)
		res.Segments = append(res.Segments, Segment{Address: prg.Paddr, FileSize: prg.Filesz, MemSize: prg.Memsz})
		if end := int64(prg.Off + prg.Filesz); end > res.ImageSize {
			res.ImageSize = end
		}
	}
	return res, nil
}
