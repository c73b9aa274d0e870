package scan

import (
	"github.com/deploymenttheory/go-ibl/pkg/app"
)

// Validate validates a scan request
func (r *Request) Validate() error {
	if r.ImagePath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "NAND image path is required", nil)
	}
	if err := r.Device.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid NAND geometry", err)
	}
	if r.Device.TotalBlocks == 0 {
		return app.NewError(app.ErrCodeInvalidInput, "total blocks must be at least 1", nil)
	}
	return nil
}
