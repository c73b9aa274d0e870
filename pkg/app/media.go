package app

import (
	"errors"
	"fmt"

	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/internal/config"
	"github.com/deploymenttheory/go-ibl/internal/i2c"
	"github.com/deploymenttheory/go-ibl/internal/interfaces"
	"github.com/deploymenttheory/go-ibl/internal/nand"
	"github.com/deploymenttheory/go-ibl/internal/sim"
)

// Media is the set of boot media backed by image files, ready for dispatch.
type Media struct {
	Dispatcher *boot.Dispatcher
	Candidates []boot.Candidate

	nandChip *sim.NANDChip
	eeprom   *sim.EEPROM
}

// OpenMedia maps the image of every configured medium in boot order and
// registers a driver for each one that could be mapped. Media without an
// image are skipped. It fails only when no medium is left.
func OpenMedia(ctx *Context, cfg *config.Config) (*Media, error) {
	order, err := cfg.MediaOrder()
	if err != nil {
		return nil, NewError(ErrCodeInvalidInput, "invalid boot media order", err)
	}

	m := &Media{Dispatcher: boot.NewDispatcher(cfg.Retry)}
	var errs []error

	for _, medium := range order {
		switch medium {
		case boot.MediumNAND:
			if m.nandChip != nil {
				continue
			}
			if cfg.NAND.Image == "" {
				ctx.Log("Skipping medium without an image", "medium", medium)
				continue
			}
			chip, err := sim.OpenNANDImage(cfg.NAND.Image, cfg.NAND.Geometry)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", medium, err))
				continue
			}
			m.nandChip = chip
			m.Dispatcher.Register(medium, nand.NewFactory(func() interfaces.PageAccessor { return chip }))
			m.Candidates = append(m.Candidates, boot.Candidate{
				Medium: medium,
				Config: nand.Config{DeviceInfo: cfg.NAND.DeviceInfo},
			})

		case boot.MediumI2C:
			if m.eeprom != nil {
				continue
			}
			if cfg.I2C.Image == "" {
				ctx.Log("Skipping medium without an image", "medium", medium)
				continue
			}
			dev, err := sim.OpenEEPROMImage(cfg.I2C.Image, cfg.I2C.BusAddress)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", medium, err))
				continue
			}
			m.eeprom = dev
			m.Dispatcher.Register(medium, i2c.NewFactory(func() interfaces.EEPROMBus { return dev }))
			m.Candidates = append(m.Candidates, boot.Candidate{
				Medium: medium,
				Config: i2c.Config{EEPROMInfo: cfg.I2C.EEPROMInfo},
			})
		}
	}

	if len(m.Candidates) == 0 {
		_ = m.Close()
		if len(errs) == 0 {
			return nil, NewError(ErrCodeInvalidInput, "no boot medium has an image configured", nil)
		}
		return nil, NewError(ErrCodeImageAccess, "no boot medium image could be opened", errors.Join(errs...))
	}
	for _, err := range errs {
		ctx.Error(err, "Boot medium image unavailable")
	}
	return m, nil
}

// Open dispatches to the first medium that opens.
func (m *Media) Open(ctx *Context) (boot.Module, boot.Medium, error) {
	mod, medium, err := m.Dispatcher.Open(ctx, m.Candidates)
	if err != nil {
		return nil, "", NewError(ErrCodeMediumOpen, "failed to open a boot medium", err)
	}
	return mod, medium, nil
}

// Stats returns the access counters of a medium's simulated hardware.
func (m *Media) Stats(medium boot.Medium) interfaces.AccessStats {
	var r interfaces.StatsReporter
	switch {
	case medium == boot.MediumNAND && m.nandChip != nil:
		r = m.nandChip
	case medium == boot.MediumI2C && m.eeprom != nil:
		r = m.eeprom
	default:
		return interfaces.AccessStats{}
	}
	return r.Stats()
}

// Close unmaps every image.
func (m *Media) Close() error {
	var errs []error
	if m.nandChip != nil {
		errs = append(errs, m.nandChip.Release())
		m.nandChip = nil
	}
	if m.eeprom != nil {
		errs = append(errs, m.eeprom.Release())
		m.eeprom = nil
	}
	return errors.Join(errs...)
}
