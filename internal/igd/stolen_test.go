package igd

import (
	"io"
	"log/slog"
	"testing"
)

func TestStolenMemorySize(t *testing.T) {
	tests := []struct {
		name string
		gen  Generation
		gmch uint32
		want uint64
	}{
		{"gen6 zero", 6, 0, 0},
		{"gen7 field 2", 7, 2 << gen6GMSShift, 64 * mib},
		{"gen6 field max", 6, 0x1F << gen6GMSShift, 0x1F * 32 * mib},
		{"gen7 ignores gen8 field", 7, 0x05 << gen8GMSShift, 0},
		{"gen8 field 2", 8, 2 << gen8GMSShift, 64 * mib},
		{"gen8 stays coarse at 0xf0", 8, 0xF0 << gen8GMSShift, 0xF0 * 32 * mib},
		{"gen9 field 0x05", 9, 0x05 << gen8GMSShift, 160 * mib},
		{"gen9 last coarse value", 9, 0xEF << gen8GMSShift, 0xEF * 32 * mib},
		{"gen9 band boundary 0xf0", 9, 0xF0 << gen8GMSShift, 4 * mib},
		{"gen9 field 0xf1", 9, 0xF1 << gen8GMSShift, 8 * mib},
		{"gen9 field max", 9, 0xFF << gen8GMSShift, 0x10 * 4 * mib},
		{"gen12 fine band", 12, 0xF4 << gen8GMSShift, 20 * mib},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StolenMemorySize(tt.gen, tt.gmch); got != tt.want {
				t.Errorf("StolenMemorySize(%d, %#x) = %#x, want %#x", tt.gen, tt.gmch, got, tt.want)
			}
		})
	}
}

func TestStolenMemorySizeMonotonicWithinBands(t *testing.T) {
	var prev uint64
	for gms := uint32(0); gms < 0xF0; gms++ {
		size := StolenMemorySize(9, gms<<gen8GMSShift)
		if size < prev {
			t.Fatalf("coarse band not monotonic at gms %#x: %#x < %#x", gms, size, prev)
		}
		prev = size
	}
	prev = 0
	for gms := uint32(0xF0); gms <= 0xFF; gms++ {
		size := StolenMemorySize(9, gms<<gen8GMSShift)
		if size <= prev {
			t.Fatalf("fine band not increasing at gms %#x: %#x <= %#x", gms, size, prev)
		}
		prev = size
	}
}

func TestApplyStolenOverride(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name     string
		gen      Generation
		gmch     uint32
		gms      uint32
		wantGMCH uint32
	}{
		{"zero leaves register alone", 9, 0x1234_0050, 0, 0x1234_0050},
		{"gen7 accepted", 7, 0x0000_00C1, 0x02, 0x0000_0011},
		{"gen7 max accepted", 7, 0, 0x10, 0x10 << gen6GMSShift},
		{"gen7 out of range rejected", 7, 0x0000_00C1, 0x11, 0x0000_00C1},
		{"gen9 accepted", 9, 0x0005_0050, 0x20, 0x0005_2050},
		{"gen9 out of range rejected", 9, 0x0005_0050, 0x41, 0x0005_0050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyStolenOverride(log, "0000:00:02.0", tt.gen, tt.gmch, tt.gms)
			if got != tt.wantGMCH {
				t.Errorf("applyStolenOverride(%d, %#x, %#x) = %#x, want %#x",
					tt.gen, tt.gmch, tt.gms, got, tt.wantGMCH)
			}
		})
	}
}

func TestApplyStolenOverrideReflectedInSize(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	gmch := applyStolenOverride(log, "0000:00:02.0", 9, 0x0005_0050, 0x20)
	if got := StolenMemorySize(9, gmch); got != 0x20*32*mib {
		t.Errorf("size after override = %#x, want %#x", got, uint64(0x20*32*mib))
	}
}
