package loader

import (
	"context"

	"github.com/deploymenttheory/go-ibl/internal/boot"
)

// loadBlob copies a fixed number of bytes to a fixed address. Without an
// explicit entry point execution starts at the load address.
func loadBlob(ctx context.Context, mod boot.Module, mem Memory, opts Options) (*Result, error) {
	if err := stream(ctx, mod, mem, opts.BlobLoadAddress, opts.BlobSize); err != nil {
		return nil, err
	}
	entry := opts.BlobEntry
	if entry == 0 {
		entry = opts.BlobLoadAddress
	}
	return &Result{
		Format:    FormatBlob,
		Entry:     entry,
		Segments:  []Segment{{Address: opts.BlobLoadAddress, FileSize: opts.BlobSize, MemSize: opts.BlobSize}},
		ImageSize: int64(opts.BlobSize),
	}, nil
}
