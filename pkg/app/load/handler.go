package load

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/deploymenttheory/go-ibl/internal/loader"
	"github.com/deploymenttheory/go-ibl/pkg/app"
)

// Handle opens the first bootable medium and loads its image into memory
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = ctx.WithTimeout(req.Timeout)
		defer cancel()
	}

	ctx.Progress("Mapping boot media...", 5)
	media, err := app.OpenMedia(ctx, req.Config)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := media.Close(); err != nil {
			ctx.Error(err, "Failed to unmap boot media")
		}
	}()

	ctx.Progress("Opening boot medium...", 15)
	mod, medium, err := media.Open(ctx)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}
	defer mod.Close()
	ctx.Log("Boot medium opened", "medium", medium)

	ctx.Progress("Loading image...", 30)
	mem := loader.NewSparseMemory(req.Config.Memory...)
	result, err := loader.Load(ctx, mod, mem, req.Config.Loader)
	if err != nil {
		return nil, timeoutOr(ctx, app.NewError(app.ErrCodeBootFailed,
			fmt.Sprintf("failed to load image from %s", medium), err))
	}

	response := &Response{
		SessionID: ctx.SessionID,
		Medium:    medium,
		Result:    result,
		Extents:   mem.Extents(),
		Written:   mem.BytesWritten(),
		Stats:     media.Stats(medium),
	}

	if req.OutputDir != "" {
		ctx.Progress("Writing memory extents...", 90)
		if response.Files, err = writeExtents(req.OutputDir, mem, response.Extents); err != nil {
			return nil, err
		}
	}

	response.Elapsed = time.Since(startTime)
	ctx.Progress("Complete", 100)
	ctx.Log("Load completed", "medium", medium, "entry", fmt.Sprintf("0x%x", result.Entry), "elapsed", response.Elapsed)

	return response, nil
}

// writeExtents saves every extent as <dir>/<base>.bin
func writeExtents(dir string, mem *loader.SparseMemory, extents []loader.Region) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, app.NewError(app.ErrCodeImageAccess, "failed to create output directory", err)
	}
	files := make([]string, 0, len(extents))
	for _, ext := range extents {
		path := filepath.Join(dir, fmt.Sprintf("%08x.bin", ext.Base))
		if err := os.WriteFile(path, mem.Read(ext.Base, int(ext.Size)), 0o644); err != nil {
			return nil, app.NewError(app.ErrCodeImageAccess, "failed to write memory extent", err)
		}
		files = append(files, path)
	}
	return files, nil
}

func timeoutOr(ctx *app.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return app.NewError(app.ErrCodeTimeout, "boot timed out", err)
	}
	return err
}
