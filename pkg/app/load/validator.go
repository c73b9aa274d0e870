package load

import (
	"github.com/deploymenttheory/go-ibl/pkg/app"
)

// Validate validates a load request
func (r *Request) Validate() error {
	if r.Config == nil {
		return app.NewError(app.ErrCodeInvalidInput, "configuration is required", nil)
	}
	if err := r.Config.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid configuration", err)
	}
	if r.Timeout < 0 {
		return app.NewError(app.ErrCodeInvalidInput, "timeout cannot be negative", nil)
	}
	return nil
}
