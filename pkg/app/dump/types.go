package dump

import (
	"io"
	"time"

	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/internal/config"
	"github.com/deploymenttheory/go-ibl/internal/interfaces"
	"github.com/deploymenttheory/go-ibl/pkg/app"
)

// Request represents a raw read of the boot image stream
type Request struct {
	Config *config.Config

	// Byte offset into the image
	Offset int64

	// Bytes to copy
	Length int64

	// Destination of the image bytes
	Output io.Writer

	// Called after every chunk, optional
	OnProgress func(*app.ProgressUpdate)
}

// Response represents a completed dump
type Response struct {
	Medium  boot.Medium            `json:"medium" yaml:"medium"`
	Offset  int64                  `json:"offset" yaml:"offset"`
	Bytes   int64                  `json:"bytes" yaml:"bytes"`
	Stats   interfaces.AccessStats `json:"stats" yaml:"stats"`
	Elapsed time.Duration          `json:"elapsed" yaml:"elapsed"`
}
