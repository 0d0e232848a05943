package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sparse/dp/internal/netif"
	"github.com/sparse/dp/internal/ui"
)

var listAll bool

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List network interfaces",
	Long: `List the network interfaces dp can publish on.

Only interfaces that are up are shown unless --all is given.`,
	Example: `  dp interfaces
  dp interfaces --all`,
	RunE: runInterfaces,
}

func init() {
	interfacesCmd.Flags().BoolVar(&listAll, "all", false, "Include interfaces that are down")
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	var (
		ifaces []netif.Interface
		err    error
	)
	if listAll {
		ifaces, err = netif.List(cmd.Context())
	} else {
		ifaces, err = netif.ListUp(cmd.Context(), netif.List)
	}
	if err != nil {
		return err
	}

	ui.NewPrinter(cmd.OutOrStdout()).Table(interfaceTable(ifaces))
	return nil
}

func interfaceTable(ifaces []netif.Interface) *ui.Table {
	t := ui.NewTable("Name", "IPv4", "MTU", "State", "Description")
	t.Empty = "No network interfaces are up."
	for _, ifc := range ifaces {
		ipv4 := "-"
		if a, ok := ifc.IPv4(); ok {
			ipv4 = a.String()
		}
		state := "down"
		if ifc.Up() {
			state = "up"
		}
		t.AddRow(ifc.Name, ipv4, strconv.Itoa(ifc.MTU), state, ifc.Description())
	}
	return t
}
