// Package vfio wraps the kernel VFIO interface used to reach a passthrough
// device: region enumeration, device-specific region lookup and bounded
// region reads, plus the sysfs views used before a device is bound.
package vfio

import (
	"encoding/binary"
	"fmt"
)

// ioctl request encoding, _IO(VFIO_TYPE, VFIO_BASE + n) from
// include/uapi/linux/vfio.h. VFIO requests carry no size in the number.
const (
	vfioType = ';'
	vfioBase = 100
)

func ioNone(nr uintptr) uintptr {
	return vfioType<<8 | nr
}

// VFIO ioctl requests used here.
var (
	deviceGetInfo       = ioNone(vfioBase + 7)
	deviceGetRegionInfo = ioNone(vfioBase + 8)
)

// Fixed vfio-pci region indexes.
const (
	ROMRegionIndex    = 6
	ConfigRegionIndex = 7
	VGARegionIndex    = 8
	numPCIRegions     = 9
)

// Region info flags.
const (
	RegionFlagRead  = 1 << 0
	RegionFlagWrite = 1 << 1
	RegionFlagMmap  = 1 << 2
	regionFlagCaps  = 1 << 3
)

// Device-specific region typing, from the region-info capability chain.
const (
	regionInfoCapType = 2

	// RegionTypePCIVendor marks a vendor-defined region; the low bits carry
	// the vendor ID.
	RegionTypePCIVendor uint32 = 1 << 31

	// Intel IGD region subtypes.
	SubtypeIGDOpRegion uint32 = 1
	SubtypeIGDHostCfg  uint32 = 2
	SubtypeIGDLPCCfg   uint32 = 3
)

// RegionInfo describes one VFIO region of a device.
type RegionInfo struct {
	Index  uint32
	Flags  uint32
	Size   uint64
	Offset uint64
}

// Readable reports whether the region supports reads.
func (r RegionInfo) Readable() bool {
	return r.Flags&RegionFlagRead != 0
}

// regionInfoHeaderLen is the fixed part of struct vfio_region_info.
const regionInfoHeaderLen = 32

// encodeRegionInfoReq builds the ioctl argument buffer for a region query.
func encodeRegionInfoReq(index uint32, argsz uint32) []byte {
	buf := make([]byte, argsz)
	binary.LittleEndian.PutUint32(buf[0:], argsz) // argsz
	binary.LittleEndian.PutUint32(buf[8:], index) // index
	return buf
}

// decodeRegionInfo parses a kernel-filled vfio_region_info buffer.
func decodeRegionInfo(buf []byte) (RegionInfo, uint32, uint32, error) {
	if len(buf) < regionInfoHeaderLen {
		return RegionInfo{}, 0, 0, fmt.Errorf("vfio: region info truncated to %d bytes", len(buf))
	}
	info := RegionInfo{
		Flags:  binary.LittleEndian.Uint32(buf[4:]),
		Index:  binary.LittleEndian.Uint32(buf[8:]),
		Size:   binary.LittleEndian.Uint64(buf[16:]),
		Offset: binary.LittleEndian.Uint64(buf[24:]),
	}
	argsz := binary.LittleEndian.Uint32(buf[0:])
	capOffset := binary.LittleEndian.Uint32(buf[12:])
	return info, argsz, capOffset, nil
}

// regionCapType walks the capability chain of a region-info buffer and
// returns the region's (type, subtype) if a type capability is present.
func regionCapType(buf []byte, flags, capOffset uint32) (typ, subtype uint32, ok bool) {
	if flags&regionFlagCaps == 0 {
		return 0, 0, false
	}
	// Each capability: u16 id, u16 version, u32 next, then payload.
	for off := capOffset; off != 0 && int(off)+8 <= len(buf); {
		id := binary.LittleEndian.Uint16(buf[off:])
		next := binary.LittleEndian.Uint32(buf[off+4:])
		if id == regionInfoCapType {
			if int(off)+16 > len(buf) {
				return 0, 0, false
			}
			typ = binary.LittleEndian.Uint32(buf[off+8:])
			subtype = binary.LittleEndian.Uint32(buf[off+12:])
			return typ, subtype, true
		}
		if next <= off {
			break
		}
		off = next
	}
	return 0, 0, false
}
