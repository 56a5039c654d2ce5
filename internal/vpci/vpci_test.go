package vpci

import (
	"errors"
	"testing"

	"github.com/virtfault/igdpass/internal/pci"
)

func TestBusAddAndFind(t *testing.T) {
	bus := NewBus()

	d, err := bus.CreateSimple("test-bridge", pci.Devfn(0x1f, 0))
	if err != nil {
		t.Fatalf("CreateSimple: %v", err)
	}
	if got := bus.Find(pci.Devfn(0x1f, 0)); got != d {
		t.Error("Find did not return the created device")
	}
	if bus.Find(pci.Devfn(2, 0)) != nil {
		t.Error("Find for empty slot should return nil")
	}
}

func TestBusRejectsOccupiedSlot(t *testing.T) {
	bus := NewBus()
	devfn := pci.Devfn(0x1f, 0)

	if _, err := bus.CreateSimple("first", devfn); err != nil {
		t.Fatalf("CreateSimple: %v", err)
	}
	_, err := bus.CreateSimple("second", devfn)
	if !errors.Is(err, ErrSlotOccupied) {
		t.Errorf("second create error = %v, want ErrSlotOccupied", err)
	}
}

func TestFixedAddressValidator(t *testing.T) {
	bus := NewBus()

	_, err := bus.CreateSimple("pinned", pci.Devfn(3, 0), FixedAddress(pci.Devfn(0x1f, 0)))
	if err == nil {
		t.Fatal("validator should reject wrong address")
	}
	if bus.Devices() != 0 {
		t.Error("rejected device must not join the bus")
	}

	if _, err := bus.CreateSimple("pinned", pci.Devfn(0x1f, 0), FixedAddress(pci.Devfn(0x1f, 0))); err != nil {
		t.Errorf("validator rejected correct address: %v", err)
	}
}

func TestApplyGuestWriteHonorsMask(t *testing.T) {
	d := NewDevice("shadow", pci.Devfn(2, 0))

	// Read-only register: mask zero, value pinned.
	d.SetLong(0x50, 0x00000208, 0, ^uint32(0))
	d.ApplyGuestWrite(0x50, 4, 0xffffffff)
	if got := d.ReadConfig(0x50, 4); got != 0x208 {
		t.Errorf("read-only register changed: 0x%x", got)
	}

	// Fully writable register.
	d.SetLong(0x5c, 0, ^uint32(0), ^uint32(0))
	d.ApplyGuestWrite(0x5c, 4, 0x80000000)
	if got := d.ReadConfig(0x5c, 4); got != 0x80000000 {
		t.Errorf("writable register = 0x%x, want 0x80000000", got)
	}

	// Partially writable: only low byte may change.
	d.SetLong(0x60, 0xaabbcc00, 0x000000ff, ^uint32(0))
	d.ApplyGuestWrite(0x60, 4, 0x11223344)
	if got := d.ReadConfig(0x60, 4); got != 0xaabbcc44 {
		t.Errorf("masked write = 0x%x, want 0xaabbcc44", got)
	}
}

func TestSetQuadPlanes(t *testing.T) {
	d := NewDevice("shadow", pci.Devfn(2, 0))
	d.SetQuad(0xc0, 0, ^uint64(0), ^uint64(0))

	d.ApplyGuestWrite(0xc0, 8, 0x1_0000_0000)
	if got := d.ReadConfig(0xc0, 8); got != 0x1_0000_0000 {
		t.Errorf("quad register = 0x%x, want 0x100000000", got)
	}
}
