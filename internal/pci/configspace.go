package pci

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ConfigSpaceSize is the legacy PCI config space size. The devices igdpass
// fabricates are conventional PCI, so the extended space is never modelled.
const ConfigSpaceSize = 256

// ConfigSpace is a legacy PCI configuration space buffer with little-endian
// typed accessors. The same layout backs the visible value plane, the guest
// write-mask plane and the emulated-bits plane of a shadowed device.
type ConfigSpace struct {
	Data [ConfigSpaceSize]byte
}

// NewConfigSpaceFromBytes creates a ConfigSpace from a byte slice, truncating
// anything past the legacy 256 bytes.
func NewConfigSpaceFromBytes(data []byte) *ConfigSpace {
	cs := &ConfigSpace{}
	copy(cs.Data[:], data)
	return cs
}

// VendorID returns the Vendor ID (offset 0x00).
func (cs *ConfigSpace) VendorID() uint16 {
	return binary.LittleEndian.Uint16(cs.Data[RegVendorID:])
}

// DeviceID returns the Device ID (offset 0x02).
func (cs *ConfigSpace) DeviceID() uint16 {
	return binary.LittleEndian.Uint16(cs.Data[RegDeviceID:])
}

// RevisionID returns the Revision ID (offset 0x08).
func (cs *ConfigSpace) RevisionID() uint8 {
	return cs.Data[RegRevisionID]
}

// Class returns the 16-bit base/sub class pair (no programming interface).
func (cs *ConfigSpace) Class() uint16 {
	return uint16(cs.Data[0x0B])<<8 | uint16(cs.Data[0x0A])
}

// SetClass stores a base/sub class pair.
func (cs *ConfigSpace) SetClass(class uint16) {
	cs.Data[0x0B] = uint8(class >> 8)
	cs.Data[0x0A] = uint8(class)
}

// SubsysVendorID returns the Subsystem Vendor ID (offset 0x2C).
func (cs *ConfigSpace) SubsysVendorID() uint16 {
	return binary.LittleEndian.Uint16(cs.Data[RegSubsysVendorID:])
}

// SubsysID returns the Subsystem ID (offset 0x2E).
func (cs *ConfigSpace) SubsysID() uint16 {
	return binary.LittleEndian.Uint16(cs.Data[RegSubsysID:])
}

// ReadU8 reads a uint8 from the given offset.
func (cs *ConfigSpace) ReadU8(offset int) uint8 {
	if offset < 0 || offset >= ConfigSpaceSize {
		return 0
	}
	return cs.Data[offset]
}

// ReadU16 reads a little-endian uint16 from the given offset.
func (cs *ConfigSpace) ReadU16(offset int) uint16 {
	if offset < 0 || offset+2 > ConfigSpaceSize {
		return 0
	}
	return binary.LittleEndian.Uint16(cs.Data[offset:])
}

// ReadU32 reads a little-endian uint32 from the given offset.
func (cs *ConfigSpace) ReadU32(offset int) uint32 {
	if offset < 0 || offset+4 > ConfigSpaceSize {
		return 0
	}
	return binary.LittleEndian.Uint32(cs.Data[offset:])
}

// ReadU64 reads a little-endian uint64 from the given offset.
func (cs *ConfigSpace) ReadU64(offset int) uint64 {
	if offset < 0 || offset+8 > ConfigSpaceSize {
		return 0
	}
	return binary.LittleEndian.Uint64(cs.Data[offset:])
}

// WriteU8 writes a uint8 at the given offset.
func (cs *ConfigSpace) WriteU8(offset int, val uint8) {
	if offset >= 0 && offset < ConfigSpaceSize {
		cs.Data[offset] = val
	}
}

// WriteU16 writes a little-endian uint16 at the given offset.
func (cs *ConfigSpace) WriteU16(offset int, val uint16) {
	if offset >= 0 && offset+2 <= ConfigSpaceSize {
		binary.LittleEndian.PutUint16(cs.Data[offset:], val)
	}
}

// WriteU32 writes a little-endian uint32 at the given offset.
func (cs *ConfigSpace) WriteU32(offset int, val uint32) {
	if offset >= 0 && offset+4 <= ConfigSpaceSize {
		binary.LittleEndian.PutUint32(cs.Data[offset:], val)
	}
}

// WriteU64 writes a little-endian uint64 at the given offset.
func (cs *ConfigSpace) WriteU64(offset int, val uint64) {
	if offset >= 0 && offset+8 <= ConfigSpaceSize {
		binary.LittleEndian.PutUint64(cs.Data[offset:], val)
	}
}

// Read returns the naturally-sized register value at offset. Sizes other
// than 1, 2, 4 and 8 read as zero.
func (cs *ConfigSpace) Read(offset, size int) uint64 {
	switch size {
	case 1:
		return uint64(cs.ReadU8(offset))
	case 2:
		return uint64(cs.ReadU16(offset))
	case 4:
		return uint64(cs.ReadU32(offset))
	case 8:
		return cs.ReadU64(offset)
	}
	return 0
}

// Write stores a naturally-sized register value at offset.
func (cs *ConfigSpace) Write(offset, size int, val uint64) {
	switch size {
	case 1:
		cs.WriteU8(offset, uint8(val))
	case 2:
		cs.WriteU16(offset, uint16(val))
	case 4:
		cs.WriteU32(offset, uint32(val))
	case 8:
		cs.WriteU64(offset, val)
	}
}

// Clone creates a deep copy of the ConfigSpace.
func (cs *ConfigSpace) Clone() *ConfigSpace {
	clone := &ConfigSpace{}
	copy(clone.Data[:], cs.Data[:])
	return clone
}

// HexDump returns a hex dump of the first maxBytes of config space.
func (cs *ConfigSpace) HexDump(maxBytes int) string {
	if maxBytes <= 0 || maxBytes > ConfigSpaceSize {
		maxBytes = ConfigSpaceSize
	}

	var sb strings.Builder
	for i := 0; i < maxBytes; i += 16 {
		sb.WriteString(fmt.Sprintf("%03x: ", i))
		for j := 0; j < 16 && i+j < maxBytes; j++ {
			sb.WriteString(fmt.Sprintf("%02x ", cs.Data[i+j]))
			if j == 7 {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
