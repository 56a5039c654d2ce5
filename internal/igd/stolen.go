package igd

import (
	"fmt"
	"log/slog"
)

const mib = 1 << 20

// Graphics mode select field of the graphics control register. Gen 6 uses a
// 5-bit field, gen 8 widened it to 8 bits at a new position.
const (
	gen6GMSShift = 3
	gen6GMSMask  = 0x1F
	gen8GMSShift = 8
	gen8GMSMask  = 0xFF
)

// Override limits in 32 MiB units, bounded by the field width of the target
// generation.
const (
	gen6GMSMax = 0x10
	gen8GMSMax = 0x40
)

// StolenMemorySize decodes the stolen memory size in bytes from a graphics
// control register snapshot. Gen 9 added a second band to the gen 8 field:
// values from 0xF0 step in 4 MiB units instead of 32 MiB, starting over at
// 4 MiB. The boundary is intentional and must hold exactly.
func StolenMemorySize(gen Generation, gmch uint32) uint64 {
	var gms uint64
	if gen < 8 {
		gms = uint64(gmch>>gen6GMSShift) & gen6GMSMask
	} else {
		gms = uint64(gmch>>gen8GMSShift) & gen8GMSMask
	}

	if gen < 9 || gms < 0xF0 {
		return gms * 32 * mib
	}
	return (gms - 0xF0 + 1) * 4 * mib
}

// ValidateGMSOverride checks a graphics mode select override against the
// field range of the target generation.
func ValidateGMSOverride(gen Generation, gms uint32) error {
	max := uint32(gen8GMSMax)
	if gen < 8 {
		max = gen6GMSMax
	}
	if gms > max {
		return fmt.Errorf("stolen memory override %#x out of range 0~%#x", gms, max)
	}
	return nil
}

// applyStolenOverride folds a user-supplied graphics mode select value into
// a control register snapshot. Values outside the generation's field range
// are logged and ignored; the register is returned unchanged.
func applyStolenOverride(log *slog.Logger, name string, gen Generation, gmch, gms uint32) uint32 {
	if gms == 0 {
		return gmch
	}
	if err := ValidateGMSOverride(gen, gms); err != nil {
		log.Error("invalid stolen memory override", "device", name, "error", err)
		return gmch
	}

	if gen < 8 {
		gmch &^= gen6GMSMask << gen6GMSShift
		gmch |= gms << gen6GMSShift
	} else {
		gmch &^= gen8GMSMask << gen8GMSShift
		gmch |= gms << gen8GMSShift
	}
	return gmch
}
