package load

import (
	"time"

	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/internal/config"
	"github.com/deploymenttheory/go-ibl/internal/interfaces"
	"github.com/deploymenttheory/go-ibl/internal/loader"
)

// Request represents a boot attempt across the configured media
type Request struct {
	Config *config.Config

	// Directory receiving one file per loaded memory extent, optional
	OutputDir string

	// Overall deadline, zero for none
	Timeout time.Duration
}

// Response represents a completed boot
type Response struct {
	SessionID string                 `json:"session_id" yaml:"session_id"`
	Medium    boot.Medium            `json:"medium" yaml:"medium"`
	Result    *loader.Result         `json:"result" yaml:"result"`
	Extents   []loader.Region        `json:"extents" yaml:"extents"`
	Written   uint64                 `json:"bytes_written" yaml:"bytes_written"`
	Files     []string               `json:"files,omitempty" yaml:"files,omitempty"`
	Stats     interfaces.AccessStats `json:"stats" yaml:"stats"`
	Elapsed   time.Duration          `json:"elapsed" yaml:"elapsed"`
}
