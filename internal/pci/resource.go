package pci

import "fmt"

// Resource flag bits from the sysfs resource file, mirroring the kernel's
// IORESOURCE_* encoding for the bits we inspect.
const (
	resFlagIO    = 0x0100
	resFlagMem   = 0x0200
	resFlag64Bit = 0x00100000
	resFlagPref  = 0x2000
)

// ROMResourceIndex is the line in the sysfs resource file describing the
// expansion ROM, after the six type 0 BARs.
const ROMResourceIndex = 6

// Resource describes one line of the sysfs resource file: a BAR window or
// the expansion ROM.
type Resource struct {
	Index        int    `json:"index"`
	Address      uint64 `json:"address"`
	Size         uint64 `json:"size"`
	IsIO         bool   `json:"is_io"`
	Is64Bit      bool   `json:"is_64bit"`
	Prefetchable bool   `json:"prefetchable"`
}

// Enabled reports whether the resource is populated.
func (r *Resource) Enabled() bool {
	return r.Size != 0
}

// String returns a summary of the resource for display.
func (r *Resource) String() string {
	if !r.Enabled() {
		return fmt.Sprintf("BAR%d: [disabled]", r.Index)
	}
	kind := "mem32"
	if r.IsIO {
		kind = "io"
	} else if r.Is64Bit {
		kind = "mem64"
	}
	pf := ""
	if r.Prefetchable {
		pf = " [prefetchable]"
	}
	return fmt.Sprintf("BAR%d: %s at 0x%x, size 0x%x%s", r.Index, kind, r.Address, r.Size, pf)
}

// ParseResourceLines parses sysfs resource file lines ("start end flags" per
// line) into Resource entries. Line 6, when present, is the expansion ROM.
func ParseResourceLines(lines []string) []Resource {
	var resources []Resource

	for i := 0; i <= ROMResourceIndex && i < len(lines); i++ {
		var start, end, flags uint64
		n, _ := fmt.Sscanf(lines[i], "0x%x 0x%x 0x%x", &start, &end, &flags)
		if n != 3 {
			n, _ = fmt.Sscanf(lines[i], "%x %x %x", &start, &end, &flags)
			if n != 3 {
				continue
			}
		}

		res := Resource{Index: i}
		if start != 0 || end != 0 {
			res.Address = start
			res.Size = end - start + 1
			res.IsIO = flags&resFlagIO != 0
			res.Is64Bit = flags&resFlag64Bit != 0
			res.Prefetchable = flags&resFlagPref != 0
		}
		resources = append(resources, res)
	}

	return resources
}
