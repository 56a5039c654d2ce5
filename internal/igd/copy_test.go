package igd

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/virtfault/igdpass/internal/pci"
	"github.com/virtfault/igdpass/internal/vfio"
	"github.com/virtfault/igdpass/internal/vpci"
)

func TestCopyHostFields(t *testing.T) {
	host := newFakeHost()
	info, err := host.DeviceRegion(
		vfio.RegionTypePCIVendor|uint32(pci.VendorIntel), vfio.SubtypeIGDLPCCfg)
	if err != nil {
		t.Fatal(err)
	}

	dst := vpci.NewDevice(LPCBridgeType, pci.Devfn(0x1F, 0))
	if err := copyHostFields(host, info, dst, lpcBridgeFields); err != nil {
		t.Fatalf("copyHostFields failed: %v", err)
	}

	want := map[string]uint16{
		"vendor":        0x8086,
		"device":        0xA30E,
		"subsys vendor": 0x1028,
		"subsys id":     0x085C,
	}
	got := map[string]uint16{
		"vendor":        dst.Config.VendorID(),
		"device":        dst.Config.DeviceID(),
		"subsys vendor": dst.Config.SubsysVendorID(),
		"subsys id":     dst.Config.SubsysID(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("copied fields mismatch (-want +got):\n%s", diff)
	}
}

// A failure on any field leaves the destination completely untouched, even
// for fields that were already read successfully.
func TestCopyHostFieldsAllOrNothing(t *testing.T) {
	host := newFakeHost()
	host.failAt = pci.RegRevisionID // third of the five LPC fields

	info, err := host.DeviceRegion(
		vfio.RegionTypePCIVendor|uint32(pci.VendorIntel), vfio.SubtypeIGDLPCCfg)
	if err != nil {
		t.Fatal(err)
	}

	dst := vpci.NewDevice(LPCBridgeType, pci.Devfn(0x1F, 0))
	if err := copyHostFields(host, info, dst, lpcBridgeFields); err == nil {
		t.Fatal("expected copy failure")
	}

	if diff := cmp.Diff(&pci.ConfigSpace{}, dst.Config); diff != "" {
		t.Errorf("destination modified by failed copy (-want +got):\n%s", diff)
	}
}

// A failed copy surfaces as a bridge setup failure rather than a partially
// identified bridge.
func TestSetupBridgesCopyFailure(t *testing.T) {
	host := newFakeHost()
	host.failAt = pci.RegRevisionID
	h := newHarness(t, 0x3E92, host, Options{})

	h.legacy.ProbeBAR4(h.dev, 4)

	if lpc := h.bus.Find(pci.Devfn(0x1F, 0)); lpc != nil && lpc.Config.VendorID() != 0 {
		t.Error("partially identified bridge left behind")
	}
	if h.fw.Bytes(BDSMSizeFile) != nil {
		t.Error("legacy mode must be disabled after copy failure")
	}
}
