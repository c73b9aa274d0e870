package boot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelByCode(t *testing.T) {
	cause := errors.New("ecc timeout")

	tests := []struct {
		name     string
		err      error
		sentinel error
		others   []error
		wantMsg  string
	}{
		{
			name:     "config",
			err:      NewConfigError(OpSeek, "negative position %d", -1),
			sentinel: ErrConfig,
			others:   []error{ErrHardware, ErrAllocation, ErrGeometryExhausted},
			wantMsg:  "seek: CONFIG: negative position -1",
		},
		{
			name:     "hardware",
			err:      NewHardwareError(OpRead, cause),
			sentinel: ErrHardware,
			others:   []error{ErrConfig, ErrGeometryExhausted},
			wantMsg:  "read: HARDWARE: ecc timeout",
		},
		{
			name:     "allocation",
			err:      NewAllocationError(OpOpen, "page buffer", cause),
			sentinel: ErrAllocation,
			others:   []error{ErrHardware},
			wantMsg:  "open: ALLOCATION: allocating page buffer: ecc timeout",
		},
		{
			name:     "geometry",
			err:      NewGeometryError(OpRead, "logical block %d", 9),
			sentinel: ErrGeometryExhausted,
			others:   []error{ErrConfig},
			wantMsg:  "read: GEOMETRY_EXHAUSTED: logical block 9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			for _, other := range tt.others {
				assert.NotErrorIs(t, tt.err, other)
			}
			assert.Equal(t, tt.wantMsg, tt.err.Error())

			wrapped := fmt.Errorf("boot failed: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
		})
	}
}

func TestHardwareErrorKeepsCause(t *testing.T) {
	cause := errors.New("nack")
	err := NewHardwareError(OpOpen, cause)

	assert.ErrorIs(t, err, cause)

	var be *Error
	assert.True(t, errors.As(err, &be))
	assert.Equal(t, OpOpen, be.Op)

	// a fully populated error is not a sentinel
	assert.NotErrorIs(t, ErrHardware, err)
}

func TestParseMedium(t *testing.T) {
	m, err := ParseMedium("nand")
	assert.NoError(t, err)
	assert.Equal(t, MediumNAND, m)

	m, err = ParseMedium("i2c")
	assert.NoError(t, err)
	assert.Equal(t, MediumI2C, m)

	_, err = ParseMedium("spi")
	assert.Error(t, err)
}

func TestWhenceString(t *testing.T) {
	assert.Equal(t, "start", SeekStart.String())
	assert.Equal(t, "current", SeekCurrent.String())
	assert.Equal(t, "end", SeekEnd.String())
	assert.Equal(t, "whence(9)", Whence(9).String())
}
