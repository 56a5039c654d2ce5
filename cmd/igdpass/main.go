package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/virtfault/igdpass/internal/color"
)

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "igdpass",
	Short: "Intel IGD legacy-mode passthrough helper",
	Long: `igdpass inspects Intel integrated graphics devices for legacy-mode
VFIO passthrough: full vBIOS support with the device assigned at guest
address 00:02.0.

It reads the device through sysfs and VFIO, classifies the silicon
generation, decodes the stolen memory configuration and reports whether
the host can provide everything legacy mode needs (ROM, OpRegion,
host/LPC bridge snapshots, IOMMU).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.Disable()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}
