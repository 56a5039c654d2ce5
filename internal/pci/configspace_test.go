package pci

import (
	"strings"
	"testing"
)

func TestConfigSpaceAccessors(t *testing.T) {
	cs := &ConfigSpace{}

	// Typical IGD header values.
	cs.WriteU16(RegVendorID, 0x8086)
	cs.WriteU16(RegDeviceID, 0x1912)
	cs.WriteU8(RegRevisionID, 0x06)
	cs.SetClass(ClassVGA)
	cs.WriteU16(RegSubsysVendorID, 0x1028)
	cs.WriteU16(RegSubsysID, 0x06b9)

	if cs.VendorID() != 0x8086 {
		t.Errorf("VendorID() = 0x%04x, want 0x8086", cs.VendorID())
	}
	if cs.DeviceID() != 0x1912 {
		t.Errorf("DeviceID() = 0x%04x, want 0x1912", cs.DeviceID())
	}
	if cs.RevisionID() != 0x06 {
		t.Errorf("RevisionID() = 0x%02x, want 0x06", cs.RevisionID())
	}
	if cs.Class() != ClassVGA {
		t.Errorf("Class() = 0x%04x, want 0x%04x", cs.Class(), ClassVGA)
	}
	if cs.SubsysVendorID() != 0x1028 {
		t.Errorf("SubsysVendorID() = 0x%04x, want 0x1028", cs.SubsysVendorID())
	}
	if cs.SubsysID() != 0x06b9 {
		t.Errorf("SubsysID() = 0x%04x, want 0x06b9", cs.SubsysID())
	}
}

func TestConfigSpaceSizedAccess(t *testing.T) {
	cs := &ConfigSpace{}

	cs.Write(0x50, 4, 0x000000c0)
	if got := cs.Read(0x50, 4); got != 0xc0 {
		t.Errorf("Read(0x50, 4) = 0x%x, want 0xc0", got)
	}

	cs.Write(0xc0, 8, 0x1122334455667788)
	if got := cs.Read(0xc0, 8); got != 0x1122334455667788 {
		t.Errorf("Read(0xc0, 8) = 0x%x, want 0x1122334455667788", got)
	}
	// Little-endian layout in the backing bytes.
	if cs.Data[0xc0] != 0x88 || cs.Data[0xc7] != 0x11 {
		t.Errorf("quad byte order wrong: % x", cs.Data[0xc0:0xc8])
	}

	if got := cs.Read(0x10, 3); got != 0 {
		t.Errorf("Read with unnatural size = 0x%x, want 0", got)
	}
}

func TestConfigSpaceBounds(t *testing.T) {
	cs := &ConfigSpace{}

	// Out-of-range accesses are ignored rather than panicking.
	cs.WriteU32(ConfigSpaceSize-2, 0xdeadbeef)
	if cs.ReadU32(ConfigSpaceSize-2) != 0 {
		t.Error("out-of-bounds write should not modify data")
	}
	if cs.ReadU8(-1) != 0 {
		t.Error("negative offset should read as zero")
	}
}

func TestConfigSpaceClone(t *testing.T) {
	cs := &ConfigSpace{}
	cs.WriteU16(RegVendorID, 0x8086)

	clone := cs.Clone()
	cs.WriteU16(RegVendorID, 0xffff)
	if clone.VendorID() != 0x8086 {
		t.Errorf("clone VendorID = 0x%04x, want 0x8086", clone.VendorID())
	}
}

func TestConfigSpaceFromBytes(t *testing.T) {
	data := make([]byte, 64)
	data[0] = 0x86
	data[1] = 0x80

	cs := NewConfigSpaceFromBytes(data)
	if cs.VendorID() != 0x8086 {
		t.Errorf("VendorID() = 0x%04x, want 0x8086", cs.VendorID())
	}
}

func TestHexDump(t *testing.T) {
	cs := &ConfigSpace{}
	cs.WriteU16(0, 0x8086)

	dump := cs.HexDump(16)
	if !strings.HasPrefix(dump, "000: 86 80") {
		t.Errorf("HexDump output unexpected: %q", dump)
	}
}
