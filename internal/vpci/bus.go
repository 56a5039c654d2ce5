package vpci

import (
	"errors"
	"fmt"
)

// ErrSlotOccupied is returned when a device is added at a devfn that already
// holds another device.
var ErrSlotOccupied = errors.New("vpci: slot already occupied")

// Validator checks a device at construction time, before it joins the bus.
// It replaces realize-time callbacks: a device rejected here never becomes
// visible to the guest.
type Validator func(*Device) error

// FixedAddress returns a Validator that rejects a device instantiated
// anywhere other than the given devfn.
func FixedAddress(devfn uint8) Validator {
	return func(d *Device) error {
		if d.Devfn != devfn {
			return fmt.Errorf("vpci: %s must have address %02x.%x, got %s",
				d.TypeName, devfn>>3, devfn&0x7, d.Addr())
		}
		return nil
	}
}

// Bus is a flat root bus: single segment, bus number 0, one device per devfn.
type Bus struct {
	devices map[uint8]*Device
}

// NewBus creates an empty root bus.
func NewBus() *Bus {
	return &Bus{devices: make(map[uint8]*Device)}
}

// Find returns the device at devfn, or nil.
func (b *Bus) Find(devfn uint8) *Device {
	return b.devices[devfn]
}

// Add attaches a device, running any validators first. The slot must be free.
func (b *Bus) Add(d *Device, validators ...Validator) error {
	for _, v := range validators {
		if err := v(d); err != nil {
			return err
		}
	}
	if existing := b.devices[d.Devfn]; existing != nil {
		return fmt.Errorf("%w: %s at %s", ErrSlotOccupied, existing.TypeName, existing.Addr())
	}
	b.devices[d.Devfn] = d
	return nil
}

// CreateSimple fabricates a minimal device at devfn and attaches it.
func (b *Bus) CreateSimple(typeName string, devfn uint8, validators ...Validator) (*Device, error) {
	d := NewDevice(typeName, devfn)
	if err := b.Add(d, validators...); err != nil {
		return nil, err
	}
	return d, nil
}

// Devices returns the number of attached devices.
func (b *Bus) Devices() int {
	return len(b.devices)
}
