package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gogpu/hwcodec/internal/pci"
)

func (a *app) adaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List the display adapters found in sysfs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAdapters(cmd.OutOrStdout())
		},
	}
}

func (a *app) runAdapters(w io.Writer) error {
	devs, err := a.scan()
	if errors.Is(err, pci.ErrNoSysfs) {
		devs, err = nil, nil
	}
	if err != nil {
		return err
	}
	return render(w, a.v.GetString("output"), devs, func(w io.Writer) error {
		if len(devs) == 0 {
			fmt.Fprintln(w, "(no adapters found)")
			return nil
		}
		fmt.Fprintln(w, "CARD\tVENDOR\tDEVICE\tDRIVER\tRENDER NODE\tACCESS")
		for _, d := range devs {
			access := "no"
			if d.Accessible {
				access = "rw"
			}
			fmt.Fprintf(w, "%s\t%s\t0x%04x\t%s\t%s\t%s\n", d.Card, d.Vendor, d.DeviceID, d.Driver, d.RenderNode, access)
		}
		return nil
	})
}
