// Package vpci models the guest-visible PCI topology: devices addressed by
// devfn on a flat root bus, each carrying the three config space planes the
// passthrough layer shadows (visible value, guest write-mask, emulated bits).
package vpci

import (
	"fmt"

	"github.com/virtfault/igdpass/internal/pci"
)

// Category tags the broad device kind, mirroring how firmware groups
// fabricated devices.
type Category uint8

const (
	CategoryMisc Category = iota
	CategoryDisplay
	CategoryBridge
)

// Device is a single function on the virtual bus. TypeName identifies which
// subsystem fabricated the device; fixed-address quirks use it to recognize
// their own creations on a second probe.
type Device struct {
	TypeName string
	Devfn    uint8
	Category Category

	// Config holds the guest-visible register values. WriteMask marks bits
	// the guest may change. Emulated marks bits served from Config rather
	// than passed through to hardware.
	Config    *pci.ConfigSpace
	WriteMask *pci.ConfigSpace
	Emulated  *pci.ConfigSpace

	Hotpluggable bool
	Hotplugged   bool
}

// NewDevice creates a device with zeroed config planes.
func NewDevice(typeName string, devfn uint8) *Device {
	return &Device{
		TypeName:     typeName,
		Devfn:        devfn,
		Config:       &pci.ConfigSpace{},
		WriteMask:    &pci.ConfigSpace{},
		Emulated:     &pci.ConfigSpace{},
		Hotpluggable: true,
	}
}

// SetLong sets all three planes for a 4-byte register in one step.
func (d *Device) SetLong(offset int, value, wmask, emulated uint32) {
	d.Config.WriteU32(offset, value)
	d.WriteMask.WriteU32(offset, wmask)
	d.Emulated.WriteU32(offset, emulated)
}

// SetQuad sets all three planes for an 8-byte register in one step.
func (d *Device) SetQuad(offset int, value, wmask, emulated uint64) {
	d.Config.WriteU64(offset, value)
	d.WriteMask.WriteU64(offset, wmask)
	d.Emulated.WriteU64(offset, emulated)
}

// ApplyGuestWrite merges a guest config write into the visible plane,
// honoring the write-mask. Bits outside the mask keep their current value.
func (d *Device) ApplyGuestWrite(offset, size int, value uint64) {
	old := d.Config.Read(offset, size)
	mask := d.WriteMask.Read(offset, size)
	d.Config.Write(offset, size, (old&^mask)|(value&mask))
}

// ReadConfig returns the visible value of a register.
func (d *Device) ReadConfig(offset, size int) uint64 {
	return d.Config.Read(offset, size)
}

// Addr formats the device's bus address for diagnostics.
func (d *Device) Addr() string {
	slot, fn := pci.SlotFn(d.Devfn)
	return fmt.Sprintf("00:%02x.%x", slot, fn)
}
