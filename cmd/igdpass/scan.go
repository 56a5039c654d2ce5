package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/virtfault/igdpass/internal/igd"
	"github.com/virtfault/igdpass/internal/vfio"
)

var scanAll bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List Intel display devices",
	Long:  "Scans /sys/bus/pci/devices/ and lists Intel display controllers with their detected generation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sr := vfio.NewSysfsReader()
		devices, err := sr.ScanDevices()
		if err != nil {
			return fmt.Errorf("failed to scan devices: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BDF\tVENDOR\tDEVICE\tCLASS\tGEN\tDRIVER")
		fmt.Fprintln(w, "---\t------\t------\t-----\t---\t------")

		found := 0
		for _, dev := range devices {
			display := dev.IsIntel() && dev.BaseClass() == 0x03
			if !display && !scanAll {
				continue
			}

			gen := "-"
			if display {
				if g := igd.DetectGeneration(dev.DeviceID); g != igd.Unsupported {
					gen = fmt.Sprintf("%d", g)
				} else {
					gen = "unsupported"
				}
			}

			fmt.Fprintf(w, "%s\t%04x\t%04x\t%s\t%s\t%s\n",
				dev.BDF.String(),
				dev.VendorID,
				dev.DeviceID,
				dev.ClassDescription(),
				gen,
				dev.Driver,
			)
			found++
		}
		w.Flush()

		if found == 0 {
			fmt.Println("No Intel display devices found.")
			return nil
		}
		fmt.Printf("\nTotal: %d devices\n", found)
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "list all PCI devices, not just Intel display controllers")
	rootCmd.AddCommand(scanCmd)
}
