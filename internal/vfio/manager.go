package vfio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/virtfault/igdpass/internal/pci"
)

// Manager handles host-side VFIO readiness checks and driver binding.
type Manager struct{}

// NewManager creates a new Manager.
func NewManager() *Manager {
	return &Manager{}
}

// CheckIOMMU checks if IOMMU is enabled on the system.
func (m *Manager) CheckIOMMU() error {
	if _, err := os.Stat("/sys/kernel/iommu_groups"); os.IsNotExist(err) {
		return fmt.Errorf("IOMMU not enabled: /sys/kernel/iommu_groups does not exist. " +
			"Enable IOMMU in BIOS and add 'intel_iommu=on' to kernel parameters")
	}

	entries, err := os.ReadDir("/sys/kernel/iommu_groups")
	if err != nil {
		return fmt.Errorf("failed to read IOMMU groups: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no IOMMU groups found: IOMMU may not be properly configured")
	}

	return nil
}

// CheckModules checks if the VFIO kernel modules are loaded.
func (m *Manager) CheckModules() error {
	modules := []string{"vfio", "vfio-pci"}
	for _, mod := range modules {
		modPath := filepath.Join("/sys/module", strings.ReplaceAll(mod, "-", "_"))
		if _, err := os.Stat(modPath); os.IsNotExist(err) {
			return fmt.Errorf("kernel module %q not loaded. Run: sudo modprobe %s", mod, mod)
		}
	}
	return nil
}

// BindDevice binds a PCI device to the vfio-pci driver.
func (m *Manager) BindDevice(bdf pci.BDF) error {
	devPath := filepath.Join("/sys/bus/pci/devices", bdf.String())

	driverLink, err := os.Readlink(filepath.Join(devPath, "driver"))
	if err == nil && filepath.Base(driverLink) == "vfio-pci" {
		return nil // already bound
	}

	if driverLink != "" {
		unbindPath := filepath.Join(filepath.Dir(driverLink), "unbind")
		if err := os.WriteFile(unbindPath, []byte(bdf.String()), 0200); err != nil {
			return fmt.Errorf("failed to unbind from current driver: %w", err)
		}
	}

	overridePath := filepath.Join(devPath, "driver_override")
	if err := os.WriteFile(overridePath, []byte("vfio-pci"), 0200); err != nil {
		return fmt.Errorf("failed to set driver override: %w", err)
	}

	if err := os.WriteFile("/sys/bus/pci/drivers_probe", []byte(bdf.String()), 0200); err != nil {
		return fmt.Errorf("failed to probe device: %w", err)
	}

	driverLink, err = os.Readlink(filepath.Join(devPath, "driver"))
	if err != nil || filepath.Base(driverLink) != "vfio-pci" {
		return fmt.Errorf("device %s was not bound to vfio-pci", bdf)
	}

	return nil
}

// IOMMUGroup returns the IOMMU group number for a device.
func (m *Manager) IOMMUGroup(bdf pci.BDF) (int, error) {
	devPath := filepath.Join("/sys/bus/pci/devices", bdf.String())
	link, err := os.Readlink(filepath.Join(devPath, "iommu_group"))
	if err != nil {
		return -1, fmt.Errorf("failed to read IOMMU group: %w", err)
	}

	var group int
	if _, err := fmt.Sscanf(filepath.Base(link), "%d", &group); err != nil {
		return -1, fmt.Errorf("failed to parse IOMMU group number: %w", err)
	}

	return group, nil
}
