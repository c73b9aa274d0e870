package dump

import (
	"fmt"
	"time"

	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/pkg/app"
)

const defaultChunk = 4096

// Handle opens the first bootable medium and copies a range of its image
// stream to the request's output.
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	media, err := app.OpenMedia(ctx, req.Config)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := media.Close(); err != nil {
			ctx.Error(err, "Failed to unmap boot media")
		}
	}()

	mod, medium, err := media.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer mod.Close()

	if err := mod.Seek(req.Offset, boot.SeekStart); err != nil {
		return nil, app.NewError(app.ErrCodeBootFailed, fmt.Sprintf("failed to seek to %d", req.Offset), err)
	}
	ctx.Log("Dumping image", "medium", medium, "offset", req.Offset, "length", req.Length)

	update := &app.ProgressUpdate{
		Message:   "Dumping",
		Total:     req.Length,
		StartedAt: startTime,
	}

	size := mod.Query()
	if size <= 0 {
		size = defaultChunk
	}
	buf := make([]byte, min(int64(size), req.Length))

	for update.Completed < req.Length {
		if err := ctx.Err(); err != nil {
			return nil, app.NewError(app.ErrCodeTimeout, "dump interrupted", err)
		}
		chunk := buf[:min(int64(len(buf)), req.Length-update.Completed)]
		if err := mod.Read(chunk); err != nil {
			return nil, app.NewError(app.ErrCodeBootFailed,
				fmt.Sprintf("read failed at offset %d", req.Offset+update.Completed), err)
		}
		if _, err := req.Output.Write(chunk); err != nil {
			return nil, app.NewError(app.ErrCodeImageAccess, "failed to write output", err)
		}

		update.Completed += int64(len(chunk))
		update.ElapsedTime = time.Since(startTime)
		if req.OnProgress != nil {
			req.OnProgress(update)
		}
		ctx.Progress(update.Message, update.Percent())
	}

	return &Response{
		Medium:  medium,
		Offset:  req.Offset,
		Bytes:   update.Completed,
		Stats:   media.Stats(medium),
		Elapsed: time.Since(startTime),
	}, nil
}
