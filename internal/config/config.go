// Package config loads boot loader settings with Viper from an ibl-config
// file, IBL_ prefixed environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/internal/loader"
	"github.com/deploymenttheory/go-ibl/internal/types"
)

// NANDConfig holds the NAND device description and the dump that backs it.
type NANDConfig struct {
	types.DeviceInfo `mapstructure:",squash" yaml:",inline"`

	// Raw dump of the array, spare bytes included
	Image string `mapstructure:"image" json:"image" yaml:"image"`
}

// I2CConfig holds the EEPROM description and the image that backs it.
type I2CConfig struct {
	types.EEPROMInfo `mapstructure:",squash" yaml:",inline"`

	Image string `mapstructure:"image" json:"image" yaml:"image"`
}

// Config is the complete boot loader configuration.
type Config struct {
	// Boot media in the order they are tried
	Media []string `mapstructure:"media" json:"media" yaml:"media"`

	NAND   NANDConfig       `mapstructure:"nand" json:"nand" yaml:"nand"`
	I2C    I2CConfig        `mapstructure:"i2c" json:"i2c" yaml:"i2c"`
	Retry  boot.RetryPolicy `mapstructure:"retry" json:"retry" yaml:"retry"`
	Loader loader.Options   `mapstructure:"loader" json:"loader" yaml:"loader"`

	// Target RAM. Empty accepts any address.
	Memory []loader.Region `mapstructure:"memory" json:"memory" yaml:"memory"`
}

// SetDefaults registers the defaults on v. Every key is registered so that
// environment variables can override it.
func SetDefaults(v *viper.Viper) {
	retry := boot.DefaultRetryPolicy()

	v.SetDefault("media", []string{string(boot.MediumNAND), string(boot.MediumI2C)})

	// Large-page part: 2 KiB pages, 64 spare bytes, 64 pages per block
	v.SetDefault("nand.page_size_bytes", 2048)
	v.SetDefault("nand.page_ecc_bytes", 64)
	v.SetDefault("nand.pages_per_block", 64)
	v.SetDefault("nand.total_blocks", 1024)
	v.SetDefault("nand.chip_select", 0)
	v.SetDefault("nand.bus_width_bits", 8)
	v.SetDefault("nand.image", "")

	// 64 KiB EEPROM at the usual boot address
	v.SetDefault("i2c.bus_address", 0x50)
	v.SetDefault("i2c.data_address", 0)
	v.SetDefault("i2c.size_bytes", 0x10000)
	v.SetDefault("i2c.block_size_bytes", 0x80)
	v.SetDefault("i2c.bus_freq_khz", 400)
	v.SetDefault("i2c.image", "")

	v.SetDefault("retry.max_attempts", retry.MaxAttempts)
	v.SetDefault("retry.initial_interval", retry.InitialInterval)
	v.SetDefault("retry.max_interval", retry.MaxInterval)

	v.SetDefault("loader.format", string(loader.FormatBootTable))
	v.SetDefault("loader.blob_size", 0)
	v.SetDefault("loader.blob_load_address", 0)
	v.SetDefault("loader.blob_entry", 0)
	v.SetDefault("loader.max_section_bytes", loader.DefaultMaxSectionBytes)
}

// Load reads the configuration into v and decodes it. When configFile is
// empty the standard locations are searched and a missing file is not an
// error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ibl-config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.ibl")
		v.AddConfigPath("/etc/ibl")
	}

	SetDefaults(v)

	v.SetEnvPrefix("IBL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that can be checked without opening a medium.
func (c *Config) Validate() error {
	if len(c.Media) == 0 {
		return errors.New("at least one boot medium must be configured")
	}
	if _, err := c.MediaOrder(); err != nil {
		return err
	}
	if c.Retry.MaxAttempts == 0 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if err := c.Loader.Validate(); err != nil {
		return fmt.Errorf("loader: %w", err)
	}
	return nil
}

// MediaOrder returns the configured media, parsed.
func (c *Config) MediaOrder() ([]boot.Medium, error) {
	out := make([]boot.Medium, 0, len(c.Media))
	for _, s := range c.Media {
		m, err := boot.ParseMedium(strings.ToLower(strings.TrimSpace(s)))
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
