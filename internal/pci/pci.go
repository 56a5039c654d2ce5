// Package pci defines PCI device types and config space accessors shared by
// the host-facing and guest-facing halves of igdpass.
package pci

import (
	"fmt"
	"strings"
)

// Well-known vendor IDs.
const (
	VendorIntel uint16 = 0x8086
)

// Standard type 0 header register offsets.
const (
	RegVendorID       = 0x00
	RegDeviceID       = 0x02
	RegCommand        = 0x04
	RegStatus         = 0x06
	RegRevisionID     = 0x08
	RegClassCode      = 0x09
	RegHeaderType     = 0x0E
	RegSubsysVendorID = 0x2C
	RegSubsysID       = 0x2E
	RegExpansionROM   = 0x30
	RegCapPointer     = 0x34
)

// Class codes (base class << 8 | sub class).
const (
	ClassVGA       uint16 = 0x0300
	ClassHost      uint16 = 0x0600
	ClassISABridge uint16 = 0x0601
)

// BDF represents a PCI Bus:Device.Function address.
type BDF struct {
	Domain   uint16
	Bus      uint8
	Device   uint8
	Function uint8
}

// ParseBDF parses a BDF string in the format "DDDD:BB:DD.F" or "BB:DD.F".
func ParseBDF(s string) (BDF, error) {
	s = strings.TrimSpace(s)
	var bdf BDF

	n, err := fmt.Sscanf(s, "%x:%x:%x.%x", &bdf.Domain, &bdf.Bus, &bdf.Device, &bdf.Function)
	if err == nil && n == 4 {
		return bdf, nil
	}

	n, err = fmt.Sscanf(s, "%x:%x.%x", &bdf.Bus, &bdf.Device, &bdf.Function)
	if err == nil && n == 3 {
		bdf.Domain = 0
		return bdf, nil
	}

	return BDF{}, fmt.Errorf("invalid BDF format %q: expected DDDD:BB:DD.F or BB:DD.F", s)
}

// String returns the canonical BDF representation: "DDDD:BB:DD.F".
func (b BDF) String() string {
	return fmt.Sprintf("%04x:%02x:%02x.%x", b.Domain, b.Bus, b.Device, b.Function)
}

// Short returns the short BDF representation without domain: "BB:DD.F".
func (b BDF) Short() string {
	return fmt.Sprintf("%02x:%02x.%x", b.Bus, b.Device, b.Function)
}

// SysfsPath returns the sysfs path for this device.
func (b BDF) SysfsPath() string {
	return fmt.Sprintf("/sys/bus/pci/devices/%s", b.String())
}

// Devfn packs a slot/function pair the way config cycles address them.
func Devfn(slot, fn uint8) uint8 {
	return slot<<3 | (fn & 0x7)
}

// SlotFn splits a packed devfn back into slot and function.
func SlotFn(devfn uint8) (slot, fn uint8) {
	return devfn >> 3, devfn & 0x7
}
