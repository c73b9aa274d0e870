package loader

import (
	"bytes"
	"context"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/internal/i2c"
	"github.com/deploymenttheory/go-ibl/internal/nand"
	"github.com/deploymenttheory/go-ibl/internal/sim"
	"github.com/deploymenttheory/go-ibl/internal/types"
)

var nandGeometry = types.Geometry{
	PageSizeBytes: 16,
	PageEccBytes:  4,
	PagesPerBlock: 4,
	TotalBlocks:   16,
}

// openNAND writes payload to a simulated NAND with block 1 bad and opens it.
func openNAND(t *testing.T, payload []byte) *nand.Session {
	t.Helper()
	img, err := sim.BuildNANDImage(sim.NANDImageSpec{Geometry: nandGeometry, BadBlocks: []uint32{1}, Payload: payload})
	require.NoError(t, err)
	chip, err := sim.NewNANDChip(nandGeometry, img)
	require.NoError(t, err)

	s := nand.NewSession(chip)
	require.NoError(t, s.Open(nand.Config{DeviceInfo: types.DeviceInfo{Geometry: nandGeometry}}, nil))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// openEEPROM places payload at the start of an EEPROM of exactly its size.
func openEEPROM(t *testing.T, payload []byte) *i2c.Module {
	t.Helper()
	info := types.EEPROMInfo{BusAddress: 0x50, SizeBytes: uint32(len(payload)), BlockSizeBytes: 8}
	m := i2c.NewModule(sim.NewEEPROM(0x50, payload), nil)
	require.NoError(t, m.Open(i2c.Config{EEPROMInfo: info}, nil))
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func fill(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = seed + byte(i)
	}
	return out
}

type elfSegment struct {
	paddr uint32
	data  []byte
	memsz uint32
}

// buildELF assembles a little-endian ELF32 executable with one PT_LOAD
// program header per segment and no sections.
func buildELF(t *testing.T, entry uint32, segs []elfSegment) []byte {
	t.Helper()
	const (
		ehsize    = 52
		phentsize = 32
	)

	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_ARM),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     entry,
		Phoff:     ehsize,
		Ehsize:    ehsize,
		Phentsize: phentsize,
		Phnum:     uint16(len(segs)),
		Shentsize: 40,
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, hdr))

	off := uint32(ehsize + phentsize*len(segs))
	var body []byte
	for _, s := range segs {
		prog := elf.Prog32{
			Type:   uint32(elf.PT_LOAD),
			Off:    off + uint32(len(body)),
			Vaddr:  s.paddr,
			Paddr:  s.paddr,
			Filesz: uint32(len(s.data)),
			Memsz:  s.memsz,
			Flags:  uint32(elf.PF_R | elf.PF_X),
			Align:  4,
		}
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, prog))
		body = append(body, s.data...)
	}
	buf.Write(body)
	return buf.Bytes()
}

func TestLoadBootTableFromNAND(t *testing.T) {
	text := []byte("hello, world")
	data := fill(70, 0x40)
	table := EncodeBootTable(0x80001000, []TableSection{
		{Address: 0x80000000, Data: text},
		{Address: 0x80010000, Data: data},
	})

	s := openNAND(t, table)
	mem := NewSparseMemory()

	res, err := Load(context.Background(), s, mem, Options{Format: FormatBootTable})
	require.NoError(t, err)

	want := &Result{
		Format: FormatBootTable,
		Entry:  0x80001000,
		Segments: []Segment{
			{Address: 0x80000000, FileSize: 12, MemSize: 12},
			{Address: 0x80010000, FileSize: 70, MemSize: 70},
		},
		ImageSize: int64(len(table)),
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, text, mem.Read(0x80000000, len(text)))
	assert.Equal(t, data, mem.Read(0x80010000, len(data)))
	assert.Equal(t, []Region{{Base: 0x80000000, Size: 12}, {Base: 0x80010000, Size: 70}}, mem.Extents())
	assert.Equal(t, int64(len(table)), s.Position())
}

func TestLoadELFFromNAND(t *testing.T) {
	text := fill(100, 0x10)
	rodata := fill(7, 0xA0)
	image := buildELF(t, 0x20000040, []elfSegment{
		{paddr: 0x20000000, data: text, memsz: 100},
		{paddr: 0x20001000, data: rodata, memsz: 32},
	})

	s := openNAND(t, image)
	mem := NewSparseMemory()

	res, err := Load(context.Background(), s, mem, Options{Format: FormatBootTable})
	require.NoError(t, err)

	assert.Equal(t, FormatELF, res.Format)
	assert.Equal(t, uint64(0x20000040), res.Entry)
	assert.Equal(t, []Segment{
		{Address: 0x20000000, FileSize: 100, MemSize: 100},
		{Address: 0x20001000, FileSize: 7, MemSize: 32},
	}, res.Segments)
	assert.Equal(t, int64(len(image)), res.ImageSize)

	assert.Equal(t, text, mem.Read(0x20000000, 100))
	wantData := append(append([]byte(nil), rodata...), make([]byte, 25)...)
	assert.Equal(t, wantData, mem.Read(0x20001000, 32))
}

func TestLoadBlobFromEEPROM(t *testing.T) {
	payload := fill(40, 1)
	m := openEEPROM(t, payload)
	mem := NewSparseMemory()

	res, err := Load(context.Background(), m, mem, Options{Format: FormatBlob, BlobSize: 40, BlobLoadAddress: 0x1000})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), res.Entry)
	assert.Equal(t, payload, mem.Read(0x1000, 40))
	assert.Equal(t, uint64(40), mem.BytesWritten())
}

type noPeek struct {
	boot.Module
}

func TestDetect(t *testing.T) {
	table := EncodeBootTable(0x100, []TableSection{{Address: 0x200, Data: []byte{1, 2, 3}}})
	elfImage := buildELF(t, 0, nil)

	t.Run("peek", func(t *testing.T) {
		m := openEEPROM(t, elfImage)
		f, err := Detect(m, FormatBootTable)
		require.NoError(t, err)
		assert.Equal(t, FormatELF, f)
		assert.Equal(t, int64(0), m.Position())
	})

	t.Run("read and rewind", func(t *testing.T) {
		m := openEEPROM(t, table)
		f, err := Detect(noPeek{m}, FormatBootTable)
		require.NoError(t, err)
		assert.Equal(t, FormatBootTable, f)
		assert.Equal(t, int64(0), m.Position())

		res, err := Load(context.Background(), noPeek{m}, NewSparseMemory(), Options{})
		require.NoError(t, err)
		assert.Equal(t, uint64(0x100), res.Entry)
	})

	t.Run("elf required", func(t *testing.T) {
		m := openEEPROM(t, table)
		_, err := Detect(m, FormatELF)
		assert.Error(t, err)
	})

	t.Run("empty medium", func(t *testing.T) {
		m := openEEPROM(t, []byte{1, 2})
		_, err := Detect(m, FormatBootTable)
		assert.ErrorIs(t, err, boot.ErrGeometryExhausted)
	})
}

func TestLoadErrors(t *testing.T) {
	table := EncodeBootTable(0x100, []TableSection{{Address: 0x80000000, Data: fill(70, 0)}})

	t.Run("truncated table", func(t *testing.T) {
		m := openEEPROM(t, table[:len(table)-4])
		_, err := Load(context.Background(), m, NewSparseMemory(), Options{})
		assert.ErrorIs(t, err, boot.ErrGeometryExhausted)
	})

	t.Run("section outside memory", func(t *testing.T) {
		m := openEEPROM(t, table)
		mem := NewSparseMemory(Region{Base: 0x80000000, Size: 64})
		_, err := Load(context.Background(), m, mem, Options{})
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("section too large", func(t *testing.T) {
		m := openEEPROM(t, table)
		_, err := Load(context.Background(), m, NewSparseMemory(), Options{MaxSectionBytes: 64})
		assert.Error(t, err)
	})

	t.Run("erased flash", func(t *testing.T) {
		s := openNAND(t, nil)
		_, err := Load(context.Background(), s, NewSparseMemory(), Options{})
		assert.Error(t, err)
	})

	t.Run("canceled", func(t *testing.T) {
		m := openEEPROM(t, table)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Load(ctx, m, NewSparseMemory(), Options{})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid options", func(t *testing.T) {
		m := openEEPROM(t, table)
		_, err := Load(context.Background(), m, NewSparseMemory(), Options{Format: FormatBlob})
		assert.Error(t, err)
		_, err = Load(context.Background(), m, NewSparseMemory(), Options{Format: "srec"})
		assert.Error(t, err)
	})
}

func TestEncodeBootTable(t *testing.T) {
	got := EncodeBootTable(0x01020304, []TableSection{
		{Address: 0x10, Data: []byte{0xAA, 0xBB}},
		{Address: 0x20},
	})
	want := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x10,
		0xAA, 0xBB, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	assert.Equal(t, want, got)
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"elf", "btbl", "blob"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("coff")
	assert.Error(t, err)
}
