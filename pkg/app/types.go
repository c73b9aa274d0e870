package app

import (
	"fmt"
	"time"
)

// ProgressUpdate represents progress information
type ProgressUpdate struct {
	Message     string
	Completed   int64
	Total       int64
	StartedAt   time.Time
	ElapsedTime time.Duration
}

// Percent calculates completion percentage
func (p *ProgressUpdate) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return int((p.Completed * 100) / p.Total)
}

// Rate calculates bytes per second
func (p *ProgressUpdate) Rate() float64 {
	if p.ElapsedTime == 0 {
		return 0
	}
	return float64(p.Completed) / p.ElapsedTime.Seconds()
}

// ETA estimates time to completion
func (p *ProgressUpdate) ETA() time.Duration {
	if p.Completed == 0 || p.Total == 0 {
		return 0
	}
	rate := p.Rate()
	if rate == 0 {
		return 0
	}
	remaining := p.Total - p.Completed
	return time.Duration(float64(remaining) / rate * float64(time.Second))
}

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeImageAccess  = "IMAGE_ACCESS"
	ErrCodeMediumOpen   = "MEDIUM_OPEN"
	ErrCodeBootFailed   = "BOOT_FAILED"
	ErrCodeTimeout      = "TIMEOUT"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// FormatBytes returns a human-readable size string
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
