//go:build !unix

package sim

import (
	"fmt"
	"os"
)

// mapImage reads the whole image file on platforms without mmap.
func mapImage(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, func() error { return nil }, nil
}
