package types

import "errors"

// EEPROMInfo describes an I2C EEPROM holding a boot image.
type EEPROMInfo struct {
	// 7-bit bus address of the EEPROM
	BusAddress uint16 `mapstructure:"bus_address" json:"bus_address" yaml:"bus_address"`

	// Byte address within the EEPROM where the boot image starts
	DataAddress uint32 `mapstructure:"data_address" json:"data_address" yaml:"data_address"`

	// Capacity of the EEPROM in bytes
	SizeBytes uint32 `mapstructure:"size_bytes" json:"size_bytes" yaml:"size_bytes"`

	// Bytes fetched per bus transaction
	BlockSizeBytes uint32 `mapstructure:"block_size_bytes" json:"block_size_bytes" yaml:"block_size_bytes"`

	BusFreqKHz uint32 `mapstructure:"bus_freq_khz" json:"bus_freq_khz" yaml:"bus_freq_khz"`
}

// Validate checks that the EEPROM description is addressable.
func (e EEPROMInfo) Validate() error {
	if e.SizeBytes == 0 {
		return errors.New("eeprom size cannot be zero")
	}
	if e.BlockSizeBytes == 0 {
		return errors.New("eeprom block size cannot be zero")
	}
	if e.DataAddress >= e.SizeBytes {
		return errors.New("eeprom data address beyond device size")
	}
	return nil
}
