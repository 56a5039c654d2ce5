package igd

// Generation is the graphics silicon generation, driving register layout
// differences. Intel changes the encoding often enough that unknown device
// IDs get no usable default.
type Generation int

// Unsupported marks a device ID outside every known generation band.
const Unsupported Generation = -1

// DetectGeneration classifies an Intel graphics device ID. The caller is
// expected to have checked the vendor; the ID bands assume an Intel VGA
// device. See linux:include/drm/i915_pciids.h for the IDs.
func DetectGeneration(deviceID uint16) Generation {
	// Broxton/Apollo Lake IDs are 0x0a84, 0x1a84, 0x1a85, 0x5a84 and
	// 0x5a85, matched on bits 11:1. Prefix 0x0a is taken by Haswell, so
	// this rule must come first.
	if deviceID&0xFFE == 0xA84 {
		return 9
	}

	switch deviceID & 0xFF00 {
	case 0x0100: // SandyBridge, IvyBridge
		return 6
	case 0x0400, // Haswell
		0x0A00, // Haswell
		0x0C00, // Haswell
		0x0D00, // Haswell
		0x0F00: // Valleyview/Bay Trail
		return 7
	case 0x1600, // Broadwell
		0x2200: // Cherryview
		return 8
	case 0x1900, // Skylake
		0x3100, // Gemini Lake
		0x5900, // Kaby Lake
		0x3E00, // Coffee Lake
		0x9B00: // Comet Lake
		return 9
	case 0x8A00, // Ice Lake
		0x4500, // Elkhart Lake
		0x4E00: // Jasper Lake
		return 11
	case 0x9A00, // Tiger Lake
		0x4C00, // Rocket Lake
		0x4600, // Alder Lake
		0xA700: // Raptor Lake
		return 12
	}

	return Unsupported
}
