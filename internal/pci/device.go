package pci

import "fmt"

// HostDevice holds identity information discovered about a physical PCI
// device. It is the read-only host side of the picture; guest-visible state
// lives in the vpci package.
type HostDevice struct {
	BDF            BDF    `json:"bdf"`
	VendorID       uint16 `json:"vendor_id"`
	DeviceID       uint16 `json:"device_id"`
	SubsysVendorID uint16 `json:"subsys_vendor_id"`
	SubsysDeviceID uint16 `json:"subsys_device_id"`
	RevisionID     uint8  `json:"revision_id"`
	ClassCode      uint32 `json:"class_code"` // 24-bit: base_class << 16 | sub_class << 8 | prog_if
	Driver         string `json:"driver,omitempty"`
	IOMMUGroup     int    `json:"iommu_group,omitempty"`
}

// BaseClass returns the PCI base class code.
func (d *HostDevice) BaseClass() uint8 {
	return uint8((d.ClassCode >> 16) & 0xFF)
}

// SubClass returns the PCI sub-class code.
func (d *HostDevice) SubClass() uint8 {
	return uint8((d.ClassCode >> 8) & 0xFF)
}

// Class returns the 16-bit base/sub class pair.
func (d *HostDevice) Class() uint16 {
	return uint16(d.BaseClass())<<8 | uint16(d.SubClass())
}

// IsIntel reports whether the device carries the Intel vendor ID.
func (d *HostDevice) IsIntel() bool {
	return d.VendorID == VendorIntel
}

// IsVGA reports whether the device is a VGA-compatible display controller.
func (d *HostDevice) IsVGA() bool {
	return d.Class() == ClassVGA
}

// classNames maps the class pairs igdpass cares about to lspci-style names.
var classNames = map[uint16]string{
	ClassVGA:       "VGA compatible controller",
	0x0302:         "3D controller",
	0x0380:         "Display controller",
	ClassHost:      "Host bridge",
	ClassISABridge: "ISA bridge",
	0x0604:         "PCI bridge",
}

// ClassDescription returns a human-readable class name.
func (d *HostDevice) ClassDescription() string {
	if name, ok := classNames[d.Class()]; ok {
		return name
	}
	return fmt.Sprintf("Class [%04x]", d.Class())
}

// Summary returns a short summary line for display.
func (d *HostDevice) Summary() string {
	return fmt.Sprintf("%s %04x:%04x [%s] (rev %02x)",
		d.BDF.String(), d.VendorID, d.DeviceID, d.ClassDescription(), d.RevisionID)
}
