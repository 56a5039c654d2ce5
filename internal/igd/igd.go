// Package igd enables legacy mode assignment for Intel integrated graphics:
// generation detection, stolen memory sizing, OpRegion publication, the
// host/LPC bridge identity mirror and the MMIO shadow register quirks that
// together let a passed-through device run with full vBIOS support at guest
// address 00:02.0.
package igd

import (
	"github.com/virtfault/igdpass/internal/vfio"
	"github.com/virtfault/igdpass/internal/vpci"
)

// Config register offsets of the shadowed IGD registers.
const (
	RegASLS      = 0xFC // ASL Storage register
	RegGMCH      = 0x50 // Graphics Control register
	RegBDSM      = 0x5C // Base Data of Stolen Memory
	RegBDSMGen11 = 0xC0 // BDSM location on gen 11 and later
)

// GMCHVGADisable is the VGA disable bit in the graphics control register.
const GMCHVGADisable = 0x2

// MMIO offsets inside BAR 0 where guest drivers expect config register
// mirrors.
const (
	GGCMirrorOffset  = 0x108040
	BDSMMirrorOffset = 0x1080C0
)

// Firmware file names consumed by guest firmware.
const (
	OpRegionFile = "etc/igd-opregion"
	BDSMSizeFile = "etc/igd-bdsm-size"
)

// Host is the hardware-facing handle the quirks read through. *vfio.Device
// implements it; tests substitute fakes.
type Host interface {
	Name() string
	RegionInfo(index uint32) (vfio.RegionInfo, error)
	DeviceRegion(typ, subtype uint32) (vfio.RegionInfo, error)
	ReadRegion(info vfio.RegionInfo, p []byte, offset uint64) error
	ReadConfig(offset uint64, size int) (uint64, error)
}

// Device is a passthrough graphics device: the guest-visible bus device plus
// the identity and hardware handle the legacy mode setup works from.
type Device struct {
	*vpci.Device

	Host     Host
	VendorID uint16
	DeviceID uint16

	// VGA reports VGA capability; VGAActive whether VGA access has been
	// enabled on the host side.
	VGA       bool
	VGAActive bool

	// ROMFile is a user-supplied ROM image path, used in place of the
	// hardware ROM region. ROMReadFailed marks the ROM unusable.
	ROMFile       string
	ROMReadFailed bool

	opregion []byte
}

// NewDevice wraps a bus device and its hardware handle.
func NewDevice(v *vpci.Device, host Host, vendorID, deviceID uint16) *Device {
	return &Device{
		Device:   v,
		Host:     host,
		VendorID: vendorID,
		DeviceID: deviceID,
	}
}

// OpRegion returns the published OpRegion blob, nil before publication.
func (d *Device) OpRegion() []byte {
	return d.opregion
}

// Close releases the OpRegion buffer and the hardware handle.
func (d *Device) Close() error {
	d.opregion = nil
	if c, ok := d.Host.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
