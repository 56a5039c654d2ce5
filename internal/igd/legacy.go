package igd

import (
	"encoding/binary"
	"errors"
	"log/slog"

	"github.com/virtfault/igdpass/internal/fwcfg"
	"github.com/virtfault/igdpass/internal/mmio"
	"github.com/virtfault/igdpass/internal/pci"
	"github.com/virtfault/igdpass/internal/vfio"
	"github.com/virtfault/igdpass/internal/vpci"
)

// errVGAUnavailable reports a missing or unreadable host VGA region.
var errVGAUnavailable = errors.New("VGA region unavailable")

// igdDevfn is the legacy graphics device address. The vBIOS and several
// drivers depend on the device sitting at 00:02.0.
var igdDevfn = pci.Devfn(0x02, 0)

// Options carries the user-tunable knobs of legacy mode setup.
type Options struct {
	// GMSOverride replaces the graphics mode select field of the control
	// register, in 32 MiB units. Zero leaves the hardware value. Use only
	// when the host BIOS offers no DVMT Pre-Allocated setting.
	GMSOverride uint32

	// ROMFile is a user-supplied ROM image path accepted in place of a
	// hardware ROM region.
	ROMFile string
}

// Legacy wires legacy mode setup to its collaborators: the virtual bus the
// bridges live on and the firmware table the blobs are published through.
type Legacy struct {
	bus  *vpci.Bus
	fw   *fwcfg.Table
	log  *slog.Logger
	opts Options
}

// NewLegacy creates the legacy mode setup over the given topology.
func NewLegacy(bus *vpci.Bus, fw *fwcfg.Table, log *slog.Logger, opts Options) *Legacy {
	if log == nil {
		log = slog.Default()
	}
	return &Legacy{bus: bus, fw: fw, log: log, opts: opts}
}

// eligible gates legacy mode behind the identity checks: an Intel VGA device
// attached at 00:02.0, probing the expected BAR.
func (l *Legacy) eligible(dev *Device, bar, want int) bool {
	return dev.VendorID == pci.VendorIntel &&
		dev.VGA &&
		bar == want &&
		l.bus.Find(igdDevfn) == dev.Device
}

// ProbeBAR0 installs the MMIO register mirrors when BAR 0 of an eligible
// device is mapped. Generations below 6 never read these registers through
// MMIO, so they get no windows. Failures disable the mirrors only; the
// device stays usable.
func (l *Legacy) ProbeBAR0(dev *Device, bar int, bar0 *mmio.Window) {
	if !l.eligible(dev, bar, 0) {
		return
	}

	gen := DetectGeneration(dev.DeviceID)
	if gen < 6 {
		return
	}

	if err := l.installMirrors(dev, gen, bar0); err != nil {
		l.log.Error("failed to install MMIO mirrors", "device", dev.Host.Name(), "error", err)
	}
}

// ProbeBAR4 runs the legacy mode setup when BAR 4 of an eligible device is
// mapped: OpRegion publication, bridge mirroring, stolen memory sizing and
// the final shadow register state. Every failure is terminal for legacy mode
// but never for the device; committed steps are not rolled back.
func (l *Legacy) ProbeBAR4(dev *Device, bar int) {
	if !l.eligible(dev, bar, 4) {
		return
	}

	gen := DetectGeneration(dev.DeviceID)
	if gen == Unsupported {
		l.log.Error("device is unsupported in legacy mode, try SandyBridge or newer",
			"device", dev.Host.Name(), "device_id", dev.DeviceID)
		return
	}

	// Most of this setup exists to let the ROM run; without a ROM there is
	// no point. Only BIOS ROMs are seen in practice, so a UEFI guest needs
	// CSM support.
	if !l.romAvailable(dev) {
		l.log.Error("device has no ROM, legacy mode disabled", "device", dev.Host.Name())
		return
	}

	// The bridges cannot be fabricated after boot, so the hotplug case is
	// a dead end: mark the ROM failed and stop.
	if dev.Hotplugged {
		dev.ROMReadFailed = true
		l.log.Error("device hotplugged, ROM disabled, legacy mode disabled",
			"device", dev.Host.Name())
		return
	}

	raw, err := dev.Host.ReadConfig(RegGMCH, 4)
	if err != nil {
		l.log.Error("failed to read graphics control register, legacy mode disabled",
			"device", dev.Host.Name(), "error", err)
		return
	}
	gmch := uint32(raw)

	// If VGA disable is clear (expected) and VGA is not already enabled,
	// try to enable it. No point enabling VGA when hardware disabled it.
	if gmch&GMCHVGADisable == 0 && !dev.VGAActive {
		if err := l.enableVGA(dev); err != nil {
			l.log.Error("failed to enable VGA access, legacy mode disabled",
				"device", dev.Host.Name(), "error", err)
			return
		}
		dev.VGAActive = true
	}

	if err := l.setupOpRegion(dev); err != nil {
		l.log.Error("legacy mode disabled", "device", dev.Host.Name(), "error", err)
		return
	}

	if err := l.setupBridges(dev); err != nil {
		l.log.Error("legacy mode disabled", "device", dev.Host.Name(), "error", err)
		return
	}

	gmch = applyStolenOverride(l.log, dev.Host.Name(), gen, gmch, l.opts.GMSOverride)
	size := StolenMemorySize(gen, gmch)

	// Firmware must allocate a 1 MiB aligned reserved region below 4 GiB
	// of this size and write its base address to the BDSM register.
	sizeBlob := make([]byte, 8)
	binary.LittleEndian.PutUint64(sizeBlob, size)
	l.fw.AddFile(BDSMSizeFile, sizeBlob)

	// GMCH is read-only, emulated.
	dev.SetLong(RegGMCH, gmch, 0, ^uint32(0))

	// BDSM is read-write, emulated. Firmware needs to be able to write it.
	if gen < 11 {
		dev.SetLong(RegBDSM, 0, ^uint32(0), ^uint32(0))
	} else {
		dev.SetQuad(RegBDSMGen11, 0, ^uint64(0), ^uint64(0))
	}

	l.log.Info("legacy mode enabled", "device", dev.Host.Name(),
		"generation", int(gen), "stolen_mib", size/mib)
}

// romAvailable reports whether a ROM exists for the device to execute:
// either a hardware ROM region of nonzero size or a user-supplied file.
func (l *Legacy) romAvailable(dev *Device) bool {
	if dev.ROMFile != "" {
		return true
	}
	info, err := dev.Host.RegionInfo(vfio.ROMRegionIndex)
	return err == nil && info.Size > 0
}

// enableVGA verifies the host exposes a usable VGA region.
func (l *Legacy) enableVGA(dev *Device) error {
	info, err := dev.Host.RegionInfo(vfio.VGARegionIndex)
	if err != nil {
		return err
	}
	if info.Size == 0 || !info.Readable() {
		return errVGAUnavailable
	}
	return nil
}
