package mkimage

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/internal/loader"
	"github.com/deploymenttheory/go-ibl/internal/sim"
	"github.com/deploymenttheory/go-ibl/internal/types"
	"github.com/deploymenttheory/go-ibl/pkg/app"
)

// Handle builds a raw image of the requested medium and writes it to disk
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := req.Payload
	if req.SwapWords {
		words := make([]uint32, len(payload)/4)
		for i := range words {
			words[i] = binary.LittleEndian.Uint32(payload[4*i:])
		}
		payload = sim.PackEEPROMWords(words)
	}
	if req.BootTable {
		payload = loader.EncodeBootTable(req.Entry, []loader.TableSection{
			{Address: req.LoadAddress, Data: payload},
		})
	}

	var (
		img []byte
		err error
		bad []uint32
	)
	switch req.Medium {
	case boot.MediumNAND:
		bad = sim.SortedBlocks(req.BadBlocks)
		img, err = sim.BuildNANDImage(sim.NANDImageSpec{Geometry: req.NAND, BadBlocks: bad, Payload: payload})
	case boot.MediumI2C:
		img, err = buildEEPROMImage(req.EEPROM, payload)
	}
	if err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "failed to build image", err)
	}

	if err := sim.WriteImageFile(req.OutputPath, img); err != nil {
		return nil, app.NewError(app.ErrCodeImageAccess, "failed to write image", err)
	}
	ctx.Log("Image written", "medium", req.Medium, "path", req.OutputPath, "bytes", len(img))

	return &Response{
		Path:         req.OutputPath,
		Medium:       req.Medium,
		ImageBytes:   len(img),
		PayloadBytes: len(payload),
		BadBlocks:    bad,
	}, nil
}

// buildEEPROMImage places the payload at the data address of an erased device
func buildEEPROMImage(info types.EEPROMInfo, payload []byte) ([]byte, error) {
	room := uint64(info.SizeBytes) - uint64(info.DataAddress)
	if uint64(len(payload)) > room {
		return nil, fmt.Errorf("payload of %d bytes does not fit in %d bytes after data address 0x%x",
			len(payload), room, info.DataAddress)
	}
	img := make([]byte, info.SizeBytes)
	for i := range img {
		img[i] = types.ErasedByte
	}
	copy(img[info.DataAddress:], payload)
	return img, nil
}
