package vfio

import (
	"encoding/binary"
	"testing"
)

func putRegionInfoHeader(buf []byte, argsz, flags, index, capOffset uint32, size, offset uint64) {
	binary.LittleEndian.PutUint32(buf[0:], argsz)
	binary.LittleEndian.PutUint32(buf[4:], flags)
	binary.LittleEndian.PutUint32(buf[8:], index)
	binary.LittleEndian.PutUint32(buf[12:], capOffset)
	binary.LittleEndian.PutUint64(buf[16:], size)
	binary.LittleEndian.PutUint64(buf[24:], offset)
}

func TestDecodeRegionInfo(t *testing.T) {
	buf := make([]byte, regionInfoHeaderLen)
	putRegionInfoHeader(buf, 64, RegionFlagRead|regionFlagCaps, ConfigRegionIndex, 32, 0x1000, 0x70000000000)

	info, argsz, capOffset, err := decodeRegionInfo(buf)
	if err != nil {
		t.Fatalf("decodeRegionInfo failed: %v", err)
	}
	if info.Index != ConfigRegionIndex {
		t.Errorf("index = %d, want %d", info.Index, ConfigRegionIndex)
	}
	if info.Size != 0x1000 {
		t.Errorf("size = %#x, want 0x1000", info.Size)
	}
	if info.Offset != 0x70000000000 {
		t.Errorf("offset = %#x, want 0x70000000000", info.Offset)
	}
	if !info.Readable() {
		t.Error("expected region to be readable")
	}
	if argsz != 64 {
		t.Errorf("argsz = %d, want 64", argsz)
	}
	if capOffset != 32 {
		t.Errorf("capOffset = %d, want 32", capOffset)
	}
}

func TestDecodeRegionInfoTruncated(t *testing.T) {
	_, _, _, err := decodeRegionInfo(make([]byte, 16))
	if err == nil {
		t.Error("expected error for truncated buffer")
	}
}

func TestEncodeRegionInfoReq(t *testing.T) {
	buf := encodeRegionInfoReq(3, 48)
	if len(buf) != 48 {
		t.Fatalf("buffer length = %d, want 48", len(buf))
	}
	if got := binary.LittleEndian.Uint32(buf[0:]); got != 48 {
		t.Errorf("argsz = %d, want 48", got)
	}
	if got := binary.LittleEndian.Uint32(buf[8:]); got != 3 {
		t.Errorf("index = %d, want 3", got)
	}
}

// buildCapChain appends a capability chain with the given entries to a
// region-info buffer and returns the full buffer plus the first cap offset.
type capEntry struct {
	id      uint16
	typ     uint32
	subtype uint32
}

func buildCapChain(entries []capEntry) ([]byte, uint32) {
	buf := make([]byte, regionInfoHeaderLen)
	first := uint32(0)
	for i, e := range entries {
		off := uint32(len(buf))
		if i == 0 {
			first = off
		}
		ent := make([]byte, 16)
		binary.LittleEndian.PutUint16(ent[0:], e.id)
		binary.LittleEndian.PutUint16(ent[2:], 1) // version
		if i < len(entries)-1 {
			binary.LittleEndian.PutUint32(ent[4:], off+16) // next
		}
		binary.LittleEndian.PutUint32(ent[8:], e.typ)
		binary.LittleEndian.PutUint32(ent[12:], e.subtype)
		buf = append(buf, ent...)
	}
	return buf, first
}

func TestRegionCapType(t *testing.T) {
	opRegionType := RegionTypePCIVendor | 0x8086

	tests := []struct {
		name        string
		entries     []capEntry
		flags       uint32
		wantOK      bool
		wantType    uint32
		wantSubtype uint32
	}{
		{
			name:        "single type cap",
			entries:     []capEntry{{id: regionInfoCapType, typ: opRegionType, subtype: SubtypeIGDOpRegion}},
			flags:       RegionFlagRead | regionFlagCaps,
			wantOK:      true,
			wantType:    opRegionType,
			wantSubtype: SubtypeIGDOpRegion,
		},
		{
			name: "type cap after unrelated cap",
			entries: []capEntry{
				{id: 1}, // sparse mmap
				{id: regionInfoCapType, typ: opRegionType, subtype: SubtypeIGDLPCCfg},
			},
			flags:       regionFlagCaps,
			wantOK:      true,
			wantType:    opRegionType,
			wantSubtype: SubtypeIGDLPCCfg,
		},
		{
			name:    "caps flag clear",
			entries: []capEntry{{id: regionInfoCapType, typ: opRegionType, subtype: SubtypeIGDOpRegion}},
			flags:   RegionFlagRead,
			wantOK:  false,
		},
		{
			name:    "no type cap in chain",
			entries: []capEntry{{id: 1}},
			flags:   regionFlagCaps,
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, first := buildCapChain(tt.entries)
			typ, subtype, ok := regionCapType(buf, tt.flags, first)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if typ != tt.wantType {
				t.Errorf("type = %#x, want %#x", typ, tt.wantType)
			}
			if subtype != tt.wantSubtype {
				t.Errorf("subtype = %#x, want %#x", subtype, tt.wantSubtype)
			}
		})
	}
}

func TestRegionCapTypeMalformedChain(t *testing.T) {
	// Chain that points back at itself must not loop forever.
	buf := make([]byte, regionInfoHeaderLen+16)
	off := uint32(regionInfoHeaderLen)
	binary.LittleEndian.PutUint16(buf[off:], 1)
	binary.LittleEndian.PutUint32(buf[off+4:], off) // next = self

	_, _, ok := regionCapType(buf, regionFlagCaps, off)
	if ok {
		t.Error("expected no match from malformed chain")
	}
}
