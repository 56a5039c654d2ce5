package vfio

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/virtfault/igdpass/internal/pci"
)

const sysfsBasePath = "/sys/bus/pci/devices"

// SysfsReader reads PCI device information from Linux sysfs. It serves the
// CLI's host-side view before (or without) a VFIO binding.
type SysfsReader struct {
	basePath string
}

// NewSysfsReader creates a SysfsReader over the default sysfs tree.
func NewSysfsReader() *SysfsReader {
	return &SysfsReader{basePath: sysfsBasePath}
}

// NewSysfsReaderWithPath creates a SysfsReader over a custom tree (tests).
func NewSysfsReaderWithPath(basePath string) *SysfsReader {
	return &SysfsReader{basePath: basePath}
}

// ScanDevices returns all PCI devices found in sysfs.
func (sr *SysfsReader) ScanDevices() ([]pci.HostDevice, error) {
	entries, err := os.ReadDir(sr.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read sysfs: %w", err)
	}

	var devices []pci.HostDevice
	for _, entry := range entries {
		// sysfs entries are symlinks, not plain directories
		name := entry.Name()
		fi, err := os.Stat(filepath.Join(sr.basePath, name))
		if err != nil || !fi.IsDir() {
			continue
		}

		bdf, err := pci.ParseBDF(name)
		if err != nil {
			continue
		}
		dev, err := sr.ReadDeviceInfo(bdf)
		if err != nil {
			continue
		}
		devices = append(devices, *dev)
	}

	return devices, nil
}

// ReadDeviceInfo reads identity attributes for one device.
func (sr *SysfsReader) ReadDeviceInfo(bdf pci.BDF) (*pci.HostDevice, error) {
	devPath := filepath.Join(sr.basePath, bdf.String())

	dev := &pci.HostDevice{BDF: bdf}

	var err error
	dev.VendorID, err = sr.readHex16(devPath, "vendor")
	if err != nil {
		return nil, fmt.Errorf("failed to read vendor ID: %w", err)
	}

	dev.DeviceID, err = sr.readHex16(devPath, "device")
	if err != nil {
		return nil, fmt.Errorf("failed to read device ID: %w", err)
	}

	dev.SubsysVendorID, _ = sr.readHex16(devPath, "subsystem_vendor")
	dev.SubsysDeviceID, _ = sr.readHex16(devPath, "subsystem_device")

	classCode, err := sr.readHex32(devPath, "class")
	if err == nil {
		dev.ClassCode = classCode & 0xFFFFFF
	}

	rev, _ := sr.readHex8(devPath, "revision")
	dev.RevisionID = rev

	driverLink, err := os.Readlink(filepath.Join(devPath, "driver"))
	if err == nil {
		dev.Driver = filepath.Base(driverLink)
	}

	iommuLink, err := os.Readlink(filepath.Join(devPath, "iommu_group"))
	if err == nil {
		if g, err := strconv.Atoi(filepath.Base(iommuLink)); err == nil {
			dev.IOMMUGroup = g
		}
	}

	return dev, nil
}

// ReadConfigSpace reads the legacy PCI config space from sysfs.
func (sr *SysfsReader) ReadConfigSpace(bdf pci.BDF) (*pci.ConfigSpace, error) {
	data, err := os.ReadFile(filepath.Join(sr.basePath, bdf.String(), "config"))
	if err != nil {
		return nil, fmt.Errorf("failed to read config space: %w", err)
	}
	return pci.NewConfigSpaceFromBytes(data), nil
}

// ReadResources reads BAR and ROM windows from the sysfs resource file.
func (sr *SysfsReader) ReadResources(bdf pci.BDF) ([]pci.Resource, error) {
	f, err := os.Open(filepath.Join(sr.basePath, bdf.String(), "resource"))
	if err != nil {
		return nil, fmt.Errorf("failed to read resource file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	return pci.ParseResourceLines(lines), nil
}

// ROMSize returns the expansion ROM window size, zero when absent.
func (sr *SysfsReader) ROMSize(bdf pci.BDF) uint64 {
	resources, err := sr.ReadResources(bdf)
	if err != nil || len(resources) <= pci.ROMResourceIndex {
		return 0
	}
	return resources[pci.ROMResourceIndex].Size
}

func (sr *SysfsReader) readHex16(devPath, name string) (uint16, error) {
	v, err := sr.readHex(devPath, name, 16)
	return uint16(v), err
}

func (sr *SysfsReader) readHex32(devPath, name string) (uint32, error) {
	v, err := sr.readHex(devPath, name, 32)
	return uint32(v), err
}

func (sr *SysfsReader) readHex8(devPath, name string) (uint8, error) {
	v, err := sr.readHex(devPath, name, 8)
	return uint8(v), err
}

func (sr *SysfsReader) readHex(devPath, name string, bits int) (uint64, error) {
	data, err := os.ReadFile(filepath.Join(devPath, name))
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(data)), 0, bits)
}
