package igd

import (
	"fmt"

	"github.com/virtfault/igdpass/internal/pci"
	"github.com/virtfault/igdpass/internal/vfio"
	"github.com/virtfault/igdpass/internal/vpci"
)

// hostField names one config register to mirror from a host bridge snapshot.
type hostField struct {
	offset int
	size   int
}

// The short list of registers copied from the host devices. The LPC/ISA
// bridge values are needed by the vBIOS; the host bridge only gets cosmetic
// revision and subsystem alignment, so it keeps its own vendor and device.
var hostBridgeFields = []hostField{
	{pci.RegRevisionID, 2},
	{pci.RegSubsysVendorID, 2},
	{pci.RegSubsysID, 2},
}

var lpcBridgeFields = []hostField{
	{pci.RegVendorID, 2},
	{pci.RegDeviceID, 2},
	{pci.RegRevisionID, 2},
	{pci.RegSubsysVendorID, 2},
	{pci.RegSubsysID, 2},
}

// copyHostFields mirrors a field list from a host config snapshot region into
// a bus device's visible config plane. All fields are read before any is
// applied: a failed read leaves the destination untouched.
func copyHostFields(h Host, info vfio.RegionInfo, dst *vpci.Device, fields []hostField) error {
	staged := make([][]byte, len(fields))
	for i, f := range fields {
		buf := make([]byte, f.size)
		if err := h.ReadRegion(info, buf, uint64(f.offset)); err != nil {
			return fmt.Errorf("field at %#02x: %w", f.offset, err)
		}
		staged[i] = buf
	}

	for i, f := range fields {
		for j, b := range staged[i] {
			dst.Config.WriteU8(f.offset+j, b)
		}
	}
	return nil
}
