package sim

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"k8s.io/klog/v2"

	"github.com/deploymenttheory/go-ibl/internal/types"
)

// NANDImageSpec describes a raw NAND dump to build.
type NANDImageSpec struct {
	Geometry types.Geometry

	// Physical blocks to mark bad
	BadBlocks []uint32

	// Bytes written across the good blocks in order, page by page
	Payload []byte
}

// BuildNANDImage lays a payload out the way a flash programmer skipping bad
// blocks would. Unused bytes stay erased. Bad blocks get a zero marker in the
// first spare byte of page 0 and page 1.
func BuildNANDImage(spec NANDImageSpec) ([]byte, error) {
	g := spec.Geometry
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}

	bad := make(map[uint32]bool, len(spec.BadBlocks))
	for _, b := range spec.BadBlocks {
		if b >= g.TotalBlocks {
			return nil, fmt.Errorf("bad block %d outside the %d block array", b, g.TotalBlocks)
		}
		bad[b] = true
	}

	good := uint64(g.TotalBlocks) - uint64(len(bad))
	capacity := good * g.BlockSizeBytes()
	if uint64(len(spec.Payload)) > capacity {
		return nil, fmt.Errorf("payload of %d bytes does not fit in %d good blocks (%d bytes)", len(spec.Payload), good, capacity)
	}

	img := make([]byte, g.RawSizeBytes())
	for i := range img {
		img[i] = types.ErasedByte
	}

	raw := uint64(g.RawPageSize())
	payload := spec.Payload
	for block := uint32(0); block < g.TotalBlocks; block++ {
		base := uint64(block) * uint64(g.PagesPerBlock) * raw
		if bad[block] {
			for _, page := range types.BadBlockMarkerPages {
				img[base+uint64(page)*raw+uint64(g.PageSizeBytes)] = 0x00
			}
			continue
		}
		for page := uint32(0); page < g.PagesPerBlock && len(payload) > 0; page++ {
			n := copy(img[base+uint64(page)*raw:base+uint64(page)*raw+uint64(g.PageSizeBytes)], payload)
			payload = payload[n:]
		}
	}

	klog.V(2).InfoS("Built NAND image", "blocks", g.TotalBlocks, "badBlocks", len(bad), "payloadBytes", len(spec.Payload))
	return img, nil
}

// WriteImageFile writes an image to disk.
func WriteImageFile(path string, img []byte) error {
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

// SortedBlocks returns the block list sorted and de-duplicated.
func SortedBlocks(blocks []uint32) []uint32 {
	out := append([]uint32(nil), blocks...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, b := range out {
		if i == 0 || b != out[n-1] {
			out[n] = b
			n++
		}
	}
	return out[:n]
}

// PackEEPROMWords converts a word image into the byte stream an EEPROM holds:
// every word is stored most significant byte first, whatever the endianness
// of the host that produced it.
func PackEEPROMWords(words []uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(out[4*i:], w)
	}
	return out
}

// UnpackEEPROMWords is the inverse of PackEEPROMWords. A trailing partial
// word is padded with erased bytes.
func UnpackEEPROMWords(data []byte) []uint32 {
	words := make([]uint32, (len(data)+3)/4)
	for i := range words {
		var w [4]byte
		for j := range w {
			w[j] = types.ErasedByte
		}
		copy(w[:], data[4*i:])
		words[i] = binary.BigEndian.Uint32(w[:])
	}
	return words
}
