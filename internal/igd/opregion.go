package igd

import (
	"errors"
	"fmt"

	"github.com/virtfault/igdpass/internal/pci"
	"github.com/virtfault/igdpass/internal/vfio"
)

// setupOpRegion republishes the hardware OpRegion to guest firmware. The
// OpRegion includes the Video BIOS Table telling the driver what outputs it
// has; without it the device may work but produce no output. Firmware is
// expected to reserve guest memory for the blob, copy it in, and write the
// base address to the ASLS register, so ASLS becomes fully emulated and
// guest-writable here.
func (l *Legacy) setupOpRegion(dev *Device) error {
	// Hotplugging is not supported for OpRegion access: firmware that has
	// already booted cannot be told about the blob.
	if dev.Hotplugged {
		return errors.New("OpRegion is not supported on hotplugged device")
	}

	info, err := dev.Host.DeviceRegion(
		vfio.RegionTypePCIVendor|uint32(pci.VendorIntel), vfio.SubtypeIGDOpRegion)
	if err != nil {
		return fmt.Errorf("device does not support OpRegion feature: %w", err)
	}

	blob := make([]byte, info.Size)
	if err := dev.Host.ReadRegion(info, blob, 0); err != nil {
		return fmt.Errorf("failed to read OpRegion: %w", err)
	}
	dev.opregion = blob

	l.fw.AddFile(OpRegionFile, blob)
	l.log.Info("OpRegion enabled", "device", dev.Host.Name(), "size", info.Size)

	dev.SetLong(RegASLS, 0, ^uint32(0), ^uint32(0))
	return nil
}
