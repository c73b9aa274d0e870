// Package boot defines the interface every boot medium presents to the boot
// loader, the error taxonomy shared by the media, and the dispatcher that
// selects a medium at boot time.
package boot

import (
	"fmt"
)

// Medium identifies a boot medium.
type Medium string

const (
	MediumNAND Medium = "nand"
	MediumI2C  Medium = "i2c"
)

// ParseMedium converts a configuration string into a Medium.
func ParseMedium(s string) (Medium, error) {
	switch Medium(s) {
	case MediumNAND, MediumI2C:
		return Medium(s), nil
	default:
		return "", fmt.Errorf("unknown boot medium %q", s)
	}
}

// Whence selects the origin of a Seek.
type Whence int

const (
	// SeekStart seeks relative to the start of the image
	SeekStart Whence = iota

	// SeekCurrent seeks relative to the current position
	SeekCurrent

	// SeekEnd is rejected by every medium: the end of a boot image is not known
	SeekEnd
)

func (w Whence) String() string {
	switch w {
	case SeekStart:
		return "start"
	case SeekCurrent:
		return "current"
	case SeekEnd:
		return "end"
	default:
		return fmt.Sprintf("whence(%d)", int(w))
	}
}

// Config is the medium-specific device description passed to Open.
type Config interface {
	Medium() Medium
}

// AsyncCallback is invoked by media that complete transfers asynchronously.
type AsyncCallback func()

// Module is the uniform boot medium interface.
type Module interface {
	// Open prepares the medium and positions it at the start of the image.
	Open(cfg Config, onComplete AsyncCallback) error

	// Close releases everything Open acquired. It is safe after a failed Open.
	Close() error

	// Read fills p from the current position and advances past it.
	Read(p []byte) error

	// Seek moves the current position.
	Seek(offset int64, whence Whence) error

	// Query reports how many bytes can be read without further hardware access.
	Query() int
}

// Peeker is implemented by media that can read without consuming.
type Peeker interface {
	// Peek fills p from the current position without moving it.
	Peek(p []byte) error
}
