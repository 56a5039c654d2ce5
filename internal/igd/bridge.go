package igd

import (
	"errors"
	"fmt"

	"github.com/virtfault/igdpass/internal/pci"
	"github.com/virtfault/igdpass/internal/vfio"
	"github.com/virtfault/igdpass/internal/vpci"
)

// LPCBridgeType tags the ISA/LPC bridge this package fabricates at 1f.0, so
// a second probe recognizes its own creation instead of treating it as a
// conflict.
const LPCBridgeType = "igd-lpc-bridge"

// Fixed topology addresses of the mirrored bridges.
var (
	hostBridgeDevfn = pci.Devfn(0x00, 0)
	lpcBridgeDevfn  = pci.Devfn(0x1F, 0)
)

// ensureLPCBridge finds or fabricates the ISA/LPC bridge at 1f.0. The vBIOS
// needs host identity values there, and arbitrary values cannot be written
// into just any bridge, so the node must be this package's own. A foreign
// occupant is a conflict.
func (l *Legacy) ensureLPCBridge() (*vpci.Device, error) {
	if existing := l.bus.Find(lpcBridgeDevfn); existing != nil {
		if existing.TypeName != LPCBridgeType {
			return nil, fmt.Errorf("cannot create LPC bridge due to existing device %s at %s",
				existing.TypeName, existing.Addr())
		}
		return existing, nil
	}

	bridge, err := l.bus.CreateSimple(LPCBridgeType, lpcBridgeDevfn,
		vpci.FixedAddress(lpcBridgeDevfn))
	if err != nil {
		return nil, err
	}
	bridge.Hotpluggable = false
	bridge.Category = vpci.CategoryBridge
	bridge.Config.SetClass(pci.ClassISABridge)
	return bridge, nil
}

// setupBridges stamps the LPC and host bridge nodes with identity fields
// read from the hardware's bridge config snapshots.
func (l *Legacy) setupBridges(dev *Device) error {
	if dev.Hotplugged {
		return errors.New("bridge setup is not supported on hotplugged device")
	}

	if existing := l.bus.Find(lpcBridgeDevfn); existing != nil && existing.TypeName != LPCBridgeType {
		return fmt.Errorf("cannot create LPC bridge due to existing device %s at %s",
			existing.TypeName, existing.Addr())
	}

	// Both snapshot regions must exist before anything is touched; the
	// kernel grew them together (Linux v4.6).
	lpcInfo, err := dev.Host.DeviceRegion(
		vfio.RegionTypePCIVendor|uint32(pci.VendorIntel), vfio.SubtypeIGDLPCCfg)
	if err != nil {
		return fmt.Errorf("LPC bridge access is not supported by kernel: %w", err)
	}
	hostInfo, err := dev.Host.DeviceRegion(
		vfio.RegionTypePCIVendor|uint32(pci.VendorIntel), vfio.SubtypeIGDHostCfg)
	if err != nil {
		return fmt.Errorf("host bridge access is not supported by kernel: %w", err)
	}

	lpc, err := l.ensureLPCBridge()
	if err != nil {
		return err
	}
	if err := copyHostFields(dev.Host, lpcInfo, lpc, lpcBridgeFields); err != nil {
		return fmt.Errorf("failed to create/modify LPC bridge: %w", err)
	}
	l.log.Info("LPC bridge enabled", "device", dev.Host.Name())

	hostBridge := l.bus.Find(hostBridgeDevfn)
	if hostBridge == nil {
		return errors.New("can't find host bridge")
	}
	if err := copyHostFields(dev.Host, hostInfo, hostBridge, hostBridgeFields); err != nil {
		return fmt.Errorf("failed to modify host bridge: %w", err)
	}
	l.log.Info("host bridge enabled", "device", dev.Host.Name())

	return nil
}
