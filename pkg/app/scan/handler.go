package scan

import (
	"time"

	"github.com/deploymenttheory/go-ibl/internal/nand"
	"github.com/deploymenttheory/go-ibl/internal/sim"
	"github.com/deploymenttheory/go-ibl/pkg/app"
)

// Handle processes a scan request
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Log("Opening NAND image", "path", req.ImagePath)
	ctx.Progress("Mapping image...", 5)

	chip, err := sim.OpenNANDImage(req.ImagePath, req.Device.Geometry)
	if err != nil {
		return nil, app.NewError(app.ErrCodeImageAccess, "failed to open NAND image", err)
	}
	defer func() { _ = chip.Release() }()

	ctx.Progress("Scanning blocks...", 20)

	session := nand.NewSession(chip)
	if err := session.Open(nand.Config{DeviceInfo: req.Device}, nil); err != nil {
		return nil, app.NewError(app.ErrCodeMediumOpen, "failed to scan NAND image", err)
	}
	defer session.Close()

	table := session.BlockMap()
	response := &Response{
		ImagePath:   req.ImagePath,
		Geometry:    req.Device.Geometry,
		TotalBlocks: table.TotalBlocks(),
		GoodBlocks:  table.GoodBlocks(),
		BadBlocks:   table.BadBlocks(),
		UsableBytes: uint64(table.GoodBlocks()) * req.Device.BlockSizeBytes(),
		Stats:       chip.Stats(),
	}

	if req.ShowMapping {
		for logical, phys := range table.Mapping() {
			response.Mapping = append(response.Mapping, BlockMapping{Logical: uint32(logical), Physical: phys})
		}
	}

	response.ScanTime = time.Since(startTime)
	ctx.Progress("Complete", 100)
	ctx.Log("Scan completed", "goodBlocks", response.GoodBlocks, "badBlocks", len(response.BadBlocks), "elapsed", response.ScanTime)

	return response, nil
}
