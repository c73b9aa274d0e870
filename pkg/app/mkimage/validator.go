package mkimage

import (
	"fmt"

	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/pkg/app"
)

// Validate validates an image creation request
func (r *Request) Validate() error {
	if r.OutputPath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "output path is required", nil)
	}
	if r.SwapWords && len(r.Payload)%4 != 0 {
		return app.NewError(app.ErrCodeInvalidInput,
			fmt.Sprintf("payload of %d bytes is not a whole number of words", len(r.Payload)), nil)
	}

	switch r.Medium {
	case boot.MediumNAND:
		if err := r.NAND.Validate(); err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid NAND geometry", err)
		}
	case boot.MediumI2C:
		if err := r.EEPROM.Validate(); err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid EEPROM description", err)
		}
		if len(r.BadBlocks) > 0 {
			return app.NewError(app.ErrCodeInvalidInput, "bad blocks only apply to NAND images", nil)
		}
	default:
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("unsupported medium %q", r.Medium), nil)
	}
	return nil
}
