package vfio

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Device is an open VFIO device file descriptor with its region layout.
type Device struct {
	name       string
	fd         int
	numRegions uint32
}

// NewDevice wraps an already-open VFIO device fd. name is used in
// diagnostics (conventionally the host BDF).
func NewDevice(fd int, name string) (*Device, error) {
	d := &Device{name: name, fd: fd}

	// struct vfio_device_info: argsz, flags, num_regions, num_irqs.
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], 16)
	if err := d.ioctl(deviceGetInfo, buf); err != nil {
		return nil, fmt.Errorf("vfio: device info for %s: %w", name, err)
	}
	d.numRegions = binary.LittleEndian.Uint32(buf[8:])
	return d, nil
}

// Name returns the device's diagnostic name.
func (d *Device) Name() string { return d.name }

// Close releases the device fd.
func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

func (d *Device) ioctl(req uintptr, buf []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), req, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return errno
	}
	return nil
}

// RegionInfo queries the region at the given fixed index.
func (d *Device) RegionInfo(index uint32) (RegionInfo, error) {
	info, _, _, err := d.regionInfoRaw(index)
	return info, err
}

func (d *Device) regionInfoRaw(index uint32) (RegionInfo, []byte, uint32, error) {
	buf := encodeRegionInfoReq(index, regionInfoHeaderLen)
	if err := d.ioctl(deviceGetRegionInfo, buf); err != nil {
		return RegionInfo{}, nil, 0, fmt.Errorf("vfio: region %d info for %s: %w", index, d.name, err)
	}
	info, argsz, capOffset, err := decodeRegionInfo(buf)
	if err != nil {
		return RegionInfo{}, nil, 0, err
	}

	// The kernel asks for a bigger buffer when a capability chain exists.
	if argsz > regionInfoHeaderLen {
		buf = encodeRegionInfoReq(index, argsz)
		if err := d.ioctl(deviceGetRegionInfo, buf); err != nil {
			return RegionInfo{}, nil, 0, fmt.Errorf("vfio: region %d caps for %s: %w", index, d.name, err)
		}
		if info, _, capOffset, err = decodeRegionInfo(buf); err != nil {
			return RegionInfo{}, nil, 0, err
		}
	}
	return info, buf, capOffset, nil
}

// DeviceRegion finds the device-specific region matching the given vendor
// type and subtype, walking the regions past the fixed vfio-pci set.
func (d *Device) DeviceRegion(typ, subtype uint32) (RegionInfo, error) {
	for index := uint32(numPCIRegions); index < d.numRegions; index++ {
		info, buf, capOffset, err := d.regionInfoRaw(index)
		if err != nil {
			continue
		}
		gotType, gotSubtype, ok := regionCapType(buf, info.Flags, capOffset)
		if ok && gotType == typ && gotSubtype == subtype {
			return info, nil
		}
	}
	return RegionInfo{}, fmt.Errorf("vfio: %s has no device region type %#x subtype %#x",
		d.name, typ, subtype)
}

// ReadRegion reads into p from the region at the given offset. It fails on
// short reads: region contents are fixed-size hardware windows and a partial
// snapshot is never usable.
func (d *Device) ReadRegion(info RegionInfo, p []byte, offset uint64) error {
	if uint64(len(p))+offset > info.Size {
		return fmt.Errorf("vfio: read [%#x, %#x) exceeds region %d size %#x",
			offset, offset+uint64(len(p)), info.Index, info.Size)
	}
	n, err := unix.Pread(d.fd, p, int64(info.Offset+offset))
	if err != nil {
		return fmt.Errorf("vfio: region %d read for %s: %w", info.Index, d.name, err)
	}
	if n != len(p) {
		return fmt.Errorf("vfio: region %d short read for %s: %d of %d bytes",
			info.Index, d.name, n, len(p))
	}
	return nil
}

// ReadConfig reads a naturally-sized value from the device's config region.
func (d *Device) ReadConfig(offset uint64, size int) (uint64, error) {
	info, err := d.RegionInfo(ConfigRegionIndex)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, size)
	if err := d.ReadRegion(info, buf, offset); err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf)), nil
	case 8:
		return binary.LittleEndian.Uint64(buf), nil
	}
	return 0, fmt.Errorf("vfio: unsupported config read size %d", size)
}
