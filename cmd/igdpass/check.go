package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/virtfault/igdpass/internal/color"
	"github.com/virtfault/igdpass/internal/igd"
	"github.com/virtfault/igdpass/internal/pci"
	"github.com/virtfault/igdpass/internal/vfio"
)

var (
	checkDevice string
	checkConfig string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check legacy-mode eligibility for an Intel graphics device",
	Long: `Runs diagnostic checks on an Intel graphics device to verify it can
be passed through in legacy mode: generation support, ROM availability,
stolen memory configuration and host VFIO readiness.

Example:
  igdpass check --bdf 0000:00:02.0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bdf, err := pci.ParseBDF(checkDevice)
		if err != nil {
			return fmt.Errorf("invalid BDF: %w", err)
		}

		cfg, err := loadConfig(checkConfig)
		if err != nil {
			return err
		}
		opts := cfg.options()

		fmt.Printf("Checking device %s...\n\n", color.Bold(bdf.String()))

		sr := vfio.NewSysfsReader()
		if cfg.SysfsPath != "" {
			sr = vfio.NewSysfsReaderWithPath(cfg.SysfsPath)
		}

		dev, err := sr.ReadDeviceInfo(bdf)
		if err != nil {
			return fmt.Errorf("%s", color.Failf("Cannot read device info: %v", err))
		}
		fmt.Println(color.Okf("Device found: %04x:%04x %s", dev.VendorID, dev.DeviceID, dev.ClassDescription()))

		eligible := true

		if !dev.IsIntel() {
			fmt.Println(color.Fail("Not an Intel device"))
			eligible = false
		}
		if !dev.IsVGA() {
			fmt.Println(color.Fail("Not a VGA-compatible display controller"))
			eligible = false
		}
		if dev.BDF.Bus != 0 || dev.BDF.Device != 2 || dev.BDF.Function != 0 {
			fmt.Println(color.Warnf("Device is at %s on the host; the guest must place it at 00:02.0", dev.BDF.Short()))
		}

		gen := igd.DetectGeneration(dev.DeviceID)
		if gen == igd.Unsupported {
			fmt.Println(color.Fail("Unsupported generation, try SandyBridge or newer"))
			eligible = false
		} else {
			fmt.Println(color.Okf("Generation %d", gen))
			if gen < 6 {
				fmt.Println(color.Warn("MMIO register mirrors are not installed below generation 6"))
			}
		}

		// Stolen memory, decoded from the live graphics control register.
		cs, err := sr.ReadConfigSpace(bdf)
		if err != nil {
			fmt.Println(color.Failf("Cannot read config space: %v", err))
			eligible = false
		} else if gen != igd.Unsupported {
			gmch := cs.ReadU32(igd.RegGMCH)
			fmt.Println(color.Okf("Stolen memory: %d MiB (GMCH %#08x)",
				igd.StolenMemorySize(gen, gmch)/(1<<20), gmch))
			if gmch&igd.GMCHVGADisable != 0 {
				fmt.Println(color.Warn("VGA is disabled in hardware"))
			}

			if opts.GMSOverride != 0 {
				if err := igd.ValidateGMSOverride(gen, opts.GMSOverride); err != nil {
					fmt.Println(color.Warnf("Override ignored: %v", err))
				} else {
					fmt.Println(color.Okf("Override accepted: %d MiB", uint64(opts.GMSOverride)*32))
				}
			}
		}

		// The whole point of legacy mode is running the ROM.
		if romSize := sr.ROMSize(bdf); romSize > 0 {
			fmt.Println(color.Okf("ROM region: %d KiB", romSize/1024))
		} else if opts.ROMFile != "" {
			fmt.Println(color.Okf("No hardware ROM; using ROM file %s", opts.ROMFile))
		} else {
			fmt.Println(color.Fail("No ROM region and no ROM file configured"))
			eligible = false
		}

		fmt.Printf("\n%s\n", color.Header("Host readiness"))

		vm := vfio.NewManager()
		if err := vm.CheckIOMMU(); err != nil {
			fmt.Println(color.Failf("IOMMU: %v", err))
			eligible = false
		} else {
			fmt.Println(color.OK("IOMMU is enabled"))
		}

		if err := vm.CheckModules(); err != nil {
			fmt.Println(color.Failf("VFIO modules: %v", err))
			eligible = false
		} else {
			fmt.Println(color.OK("VFIO modules loaded"))
		}

		if group, err := vm.IOMMUGroup(bdf); err != nil {
			fmt.Println(color.Warnf("IOMMU group: %v", err))
		} else {
			fmt.Println(color.Okf("IOMMU group: %d", group))
		}

		if dev.Driver == "vfio-pci" {
			fmt.Println(color.OK("Already bound to vfio-pci"))
		} else if dev.Driver != "" {
			fmt.Println(color.Warnf("Currently bound to %q (will need unbinding)", dev.Driver))
		} else {
			fmt.Println(color.OK("No driver bound"))
		}

		fmt.Println()
		if eligible {
			fmt.Println(color.OK("Device is eligible for legacy mode"))
		} else {
			fmt.Println(color.Fail("Device is not eligible for legacy mode"))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkDevice, "bdf", "", "device BDF address to check (required)")
	checkCmd.Flags().StringVar(&checkConfig, "config", "", "path to igdpass.yaml")
	_ = checkCmd.MarkFlagRequired("bdf")
	rootCmd.AddCommand(checkCmd)
}
