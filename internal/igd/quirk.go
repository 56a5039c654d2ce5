package igd

import (
	"fmt"

	"github.com/virtfault/igdpass/internal/mmio"
)

// configMirror serves MMIO reads from the device's visible config plane, at
// the register bound to the window.
func configMirror(dev *Device, reg int) mmio.HandlerFunc {
	return func(offset uint64, size int) uint64 {
		return dev.ReadConfig(reg+int(offset), size)
	}
}

// installMirrors overlays the graphics control and stolen memory base
// mirrors on BAR 0. Drivers written for bare metal read these registers
// through MMIO rather than config cycles; the windows keep both views
// consistent. The BDSM register widens to 8 bytes and relocates on gen 11.
func (l *Legacy) installMirrors(dev *Device, gen Generation, bar0 *mmio.Window) error {
	ggc := &mmio.Subregion{
		Name:     "igd-ggc-mirror",
		Offset:   GGCMirrorOffset,
		Size:     2,
		Priority: 1,
		Handler:  configMirror(dev, RegGMCH),
	}
	if err := bar0.AddSubregion(ggc); err != nil {
		return fmt.Errorf("GGC mirror: %w", err)
	}

	bdsmReg, width := RegBDSM, uint64(4)
	if gen >= 11 {
		bdsmReg, width = RegBDSMGen11, 8
	}
	bdsm := &mmio.Subregion{
		Name:     "igd-bdsm-mirror",
		Offset:   BDSMMirrorOffset,
		Size:     width,
		Priority: 1,
		Handler:  configMirror(dev, bdsmReg),
	}
	if err := bar0.AddSubregion(bdsm); err != nil {
		return fmt.Errorf("BDSM mirror: %w", err)
	}
	return nil
}
