package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/virtfault/igdpass/internal/color"
	"github.com/virtfault/igdpass/internal/pci"
	"github.com/virtfault/igdpass/internal/vfio"
)

var bindDevice string

var bindCmd = &cobra.Command{
	Use:   "bind",
	Short: "Bind a device to the vfio-pci driver",
	Long: `Unbinds the device from its current driver and binds it to vfio-pci
so it can be passed through. Requires root.

Example:
  sudo igdpass bind --bdf 0000:00:02.0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bdf, err := pci.ParseBDF(bindDevice)
		if err != nil {
			return fmt.Errorf("invalid BDF: %w", err)
		}

		vm := vfio.NewManager()
		if err := vm.CheckModules(); err != nil {
			return fmt.Errorf("%s", color.Failf("%v", err))
		}
		if err := vm.BindDevice(bdf); err != nil {
			return fmt.Errorf("%s", color.Failf("bind failed: %v", err))
		}
		fmt.Println(color.Okf("Device %s bound to vfio-pci", bdf))

		if group, err := vm.IOMMUGroup(bdf); err == nil {
			fmt.Println(color.Okf("IOMMU group: %d", group))
		}
		return nil
	},
}

func init() {
	bindCmd.Flags().StringVar(&bindDevice, "bdf", "", "device BDF address to bind (required)")
	_ = bindCmd.MarkFlagRequired("bdf")
	rootCmd.AddCommand(bindCmd)
}
