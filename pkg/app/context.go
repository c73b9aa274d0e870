package app

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// Context holds application-wide configuration and state
type Context struct {
	context.Context

	// Output preferences
	OutputFormat string
	Verbose      bool
	Quiet        bool

	// Destination for formatted results
	Out io.Writer

	// SessionID tags every log line of one invocation
	SessionID string

	// Common timeouts
	DefaultTimeout time.Duration

	// Progress reporting
	ProgressCallback func(message string, percent int)
}

// NewContext creates a new application context
func NewContext() *Context {
	return &Context{
		Context:        context.Background(),
		Out:            os.Stdout,
		SessionID:      uuid.NewString(),
		DefaultTimeout: 30 * time.Second,
	}
}

// WithTimeout creates a context with timeout
func (c *Context) WithTimeout(timeout time.Duration) (*Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	newCtx := *c
	newCtx.Context = ctx
	return &newCtx, cancel
}

// WithCancel creates a cancellable context
func (c *Context) WithCancel() (*Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(c.Context)
	newCtx := *c
	newCtx.Context = ctx
	return &newCtx, cancel
}

// SetProgress sets the progress callback function
func (c *Context) SetProgress(callback func(string, int)) {
	c.ProgressCallback = callback
}

// Progress reports progress if callback is set
func (c *Context) Progress(message string, percent int) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(message, percent)
	}
}

// Log records a message when verbose output is enabled
func (c *Context) Log(message string, keysAndValues ...any) {
	if c.Quiet || !c.Verbose {
		return
	}
	klog.InfoS(message, append([]any{"session", c.SessionID}, keysAndValues...)...)
}

// Error records an error unless quiet
func (c *Context) Error(err error, message string, keysAndValues ...any) {
	if c.Quiet {
		return
	}
	klog.ErrorS(err, message, append([]any{"session", c.SessionID}, keysAndValues...)...)
}
