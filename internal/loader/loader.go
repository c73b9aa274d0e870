// Package loader streams a boot image from an open boot medium into target
// memory. The image format is detected from its first bytes: ELF files are
// recognised by their magic, anything else is treated as the configured
// format, a TI boot table or a raw blob.
package loader

import (
	"bytes"
	"context"
	"debug/elf"
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/deploymenttheory/go-ibl/internal/boot"
)

// Format is a boot image format.
type Format string

const (
	FormatELF       Format = "elf"
	FormatBootTable Format = "btbl"
	FormatBlob      Format = "blob"
)

// ParseFormat converts a configuration string into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatELF, FormatBootTable, FormatBlob:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown image format %q", s)
	}
}

// DefaultMaxSectionBytes bounds a single boot table section.
const DefaultMaxSectionBytes = 64 << 20

// defaultChunk is used when the medium reports nothing buffered.
const defaultChunk = 4096

// Options controls how an image is interpreted.
type Options struct {
	// Format assumed when the image is not ELF
	Format Format `mapstructure:"format" json:"format" yaml:"format"`

	// Raw blob parameters
	BlobSize        uint64 `mapstructure:"blob_size" json:"blob_size" yaml:"blob_size"`
	BlobLoadAddress uint64 `mapstructure:"blob_load_address" json:"blob_load_address" yaml:"blob_load_address"`
	BlobEntry       uint64 `mapstructure:"blob_entry" json:"blob_entry" yaml:"blob_entry"`

	// Largest boot table section accepted. Zero uses DefaultMaxSectionBytes.
	MaxSectionBytes uint64 `mapstructure:"max_section_bytes" json:"max_section_bytes" yaml:"max_section_bytes"`
}

// Validate checks the options for the configured fallback format. An empty
// format means a boot table.
func (o Options) Validate() error {
	switch o.Format {
	case "", FormatBootTable, FormatELF:
		return nil
	case FormatBlob:
		if o.BlobSize == 0 {
			return errors.New("blob format needs a non-zero blob size")
		}
		return nil
	default:
		return fmt.Errorf("unknown image format %q", o.Format)
	}
}

func (o Options) maxSection() uint64 {
	if o.MaxSectionBytes == 0 {
		return DefaultMaxSectionBytes
	}
	return o.MaxSectionBytes
}

// Segment is one contiguous range written to memory.
type Segment struct {
	Address  uint64 `json:"address" yaml:"address"`
	FileSize uint64 `json:"file_size" yaml:"file_size"`
	MemSize  uint64 `json:"mem_size" yaml:"mem_size"`
}

// Result describes a loaded image. Control is not transferred: the caller
// decides what to do with the entry point.
type Result struct {
	Format    Format    `json:"format" yaml:"format"`
	Entry     uint64    `json:"entry" yaml:"entry"`
	Segments  []Segment `json:"segments" yaml:"segments"`
	ImageSize int64     `json:"image_size" yaml:"image_size"`
}

var elfMagic = []byte(elf.ELFMAG)

// Detect inspects the first four bytes at the current position without
// consuming them.
func Detect(mod boot.Module, fallback Format) (Format, error) {
	var magic [4]byte
	if p, ok := mod.(boot.Peeker); ok {
		if err := p.Peek(magic[:]); err != nil {
			return "", fmt.Errorf("failed to peek image header: %w", err)
		}
	} else {
		if err := mod.Read(magic[:]); err != nil {
			return "", fmt.Errorf("failed to read image header: %w", err)
		}
		if err := mod.Seek(-int64(len(magic)), boot.SeekCurrent); err != nil {
			return "", fmt.Errorf("failed to rewind image header: %w", err)
		}
	}

	if bytes.Equal(magic[:], elfMagic) {
		return FormatELF, nil
	}
	if fallback == FormatELF {
		return "", fmt.Errorf("image header % x is not ELF", magic)
	}
	return fallback, nil
}

// Load detects the image format and copies the image into mem. The module
// must be positioned at the start of the image.
func Load(ctx context.Context, mod boot.Module, mem Memory, opts Options) (*Result, error) {
	if opts.Format == "" {
		opts.Format = FormatBootTable
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	format, err := Detect(mod, opts.Format)
	if err != nil {
		return nil, err
	}
	klog.V(1).InfoS("Detected image format", "format", format)

	var res *Result
	switch format {
	case FormatELF:
		res, err = loadELF(ctx, mod, mem)
	case FormatBootTable:
		res, err = loadBootTable(ctx, mod, mem, opts.maxSection())
	case FormatBlob:
		res, err = loadBlob(ctx, mod, mem, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s image: %w", format, err)
	}

	klog.InfoS("Image loaded", "format", res.Format, "entry", fmt.Sprintf("0x%x", res.Entry), "segments", len(res.Segments))
	return res, nil
}

// stream copies n bytes from the current position of mod to addr, in chunks
// the size the medium reports as buffered.
func stream(ctx context.Context, mod boot.Module, mem Memory, addr, n uint64) error {
	size := mod.Query()
	if size <= 0 {
		size = defaultChunk
	}
	buf := make([]byte, min(uint64(size), n))

	for done := uint64(0); done < n; {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := buf[:min(uint64(len(buf)), n-done)]
		if err := mod.Read(chunk); err != nil {
			return fmt.Errorf("reading %d bytes at image offset +%d: %w", len(chunk), done, err)
		}
		if err := mem.Write(addr+done, chunk); err != nil {
			return err
		}
		done += uint64(len(chunk))
	}
	return nil
}
