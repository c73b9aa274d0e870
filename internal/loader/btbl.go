package loader

import (
	"context"
	"encoding/binary"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/deploymenttheory/go-ibl/internal/boot"
)

// A boot table is a big-endian word stream: the entry point, then sections of
// {byte count, load address, data} with the data padded to a whole word, and
// finally a zero byte count.

func readWord(mod boot.Module) (uint32, error) {
	var w [4]byte
	if err := mod.Read(w[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(w[:]), nil
}

func loadBootTable(ctx context.Context, mod boot.Module, mem Memory, maxSection uint64) (*Result, error) {
	entry, err := readWord(mod)
	if err != nil {
		return nil, fmt.Errorf("reading entry point: %w", err)
	}

	res := &Result{Format: FormatBootTable, Entry: uint64(entry), ImageSize: 4}
	for {
		count, err := readWord(mod)
		if err != nil {
			return nil, fmt.Errorf("reading section %d header: %w", len(res.Segments), err)
		}
		res.ImageSize += 4
		if count == 0 {
			return res, nil
		}
		if uint64(count) > maxSection {
			return nil, fmt.Errorf("section %d is %d bytes, limit is %d", len(res.Segments), count, maxSection)
		}

		addr, err := readWord(mod)
		if err != nil {
			return nil, fmt.Errorf("reading section %d address: %w", len(res.Segments), err)
		}
		res.ImageSize += 4

		if err := stream(ctx, mod, mem, uint64(addr), uint64(count)); err != nil {
			return nil, fmt.Errorf("section %d: %w", len(res.Segments), err)
		}
		res.ImageSize += int64(count)

		if pad := (4 - count%4) % 4; pad != 0 {
			if err := mod.Seek(int64(pad), boot.SeekCurrent); err != nil {
				return nil, fmt.Errorf("section %d padding: %w", len(res.Segments), err)
			}
			res.ImageSize += int64(pad)
		}

		klog.V(2).InfoS("Loaded boot table section", "index", len(res.Segments), "address", fmt.Sprintf("0x%08x", addr), "bytes", count)
		res.Segments = append(res.Segments, Segment{Address: uint64(addr), FileSize: uint64(count), MemSize: uint64(count)})
	}
}

// TableSection is one section of a boot table being built.
type TableSection struct {
	Address uint32
	Data    []byte
}

// EncodeBootTable builds a boot table with the given entry point and sections.
// Empty sections are skipped since a zero count ends the table.
func EncodeBootTable(entry uint32, sections []TableSection) []byte {
	var out []byte
	out = binary.BigEndian.AppendUint32(out, entry)
	for _, s := range sections {
		if len(s.Data) == 0 {
			continue
		}
		out = binary.BigEndian.AppendUint32(out, uint32(len(s.Data)))
		out = binary.BigEndian.AppendUint32(out, s.Address)
		out = append(out, s.Data...)
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
	}
	return binary.BigEndian.AppendUint32(out, 0)
}
