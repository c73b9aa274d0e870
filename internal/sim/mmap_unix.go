//go:build unix

package sim

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapImage maps an image file read-only. The returned release function
// unmaps it.
func mapImage(path string) ([]byte, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if stat.Size() == 0 {
		return []byte{}, func() error { return nil }, nil
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to map image: %w", err)
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
