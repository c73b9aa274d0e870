package dump

import (
	"github.com/deploymenttheory/go-ibl/pkg/app"
)

// Validate validates a dump request
func (r *Request) Validate() error {
	if r.Config == nil {
		return app.NewError(app.ErrCodeInvalidInput, "configuration is required", nil)
	}
	if err := r.Config.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid configuration", err)
	}
	if r.Offset < 0 {
		return app.NewError(app.ErrCodeInvalidInput, "offset cannot be negative", nil)
	}
	if r.Length <= 0 {
		return app.NewError(app.ErrCodeInvalidInput, "length must be positive", nil)
	}
	if r.Output == nil {
		return app.NewError(app.ErrCodeInvalidInput, "output is required", nil)
	}
	return nil
}
