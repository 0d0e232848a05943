package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/huin/goupnp"
	"github.com/huin/goupnp/httpu"
	upnpssdp "github.com/huin/goupnp/ssdp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sparse/dp/internal/logging"
	"github.com/sparse/dp/internal/mdns"
	"github.com/sparse/dp/internal/netif"
	"github.com/sparse/dp/internal/ssdp"
	"github.com/sparse/dp/internal/ui"
)

const (
	minSearchTimeout = 2 * time.Second
	fetchTimeout     = 3 * time.Second
	searchSends      = 2
)

// Search command flags
var (
	searchIface   string
	searchTarget  string
	searchTimeout time.Duration
	searchMDNS    bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the network for UPnP devices",
	Long: `Send an SSDP M-SEARCH and list the devices that answer.

Each answering location is fetched and its description document decoded, so
a device that announces but serves a broken document shows up with an error.
With --mdns the search browses for dp's mDNS advertisements instead.`,
	Example: `  # Find every root device
  dp search

  # Look for one device from a given interface
  dp search -i eth0 --target uuid:6f1c2a4e-1b2c-4d5e-8f90-0123456789ab

  # Browse mDNS for dp publishers
  dp search --mdns`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchIface, "iface", "i", "", "Send from this interface's address (default: any)")
	searchCmd.Flags().StringVar(&searchTarget, "target", ssdp.RootDevice, "Search target (ST)")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 3*time.Second, "How long to wait for answers")
	searchCmd.Flags().BoolVar(&searchMDNS, "mdns", false, "Browse mDNS instead of sending M-SEARCH")
}

// foundDevice is one answer to a search.
type foundDevice struct {
	Location string
	USN      string
	Server   string
	Name     string
	UDN      string
	Err      error
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(""); err != nil {
		return err
	}
	defer logging.Sync()

	if searchTimeout < minSearchTimeout {
		return fmt.Errorf("--timeout must be at least %s", minSearchTimeout)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	printer := ui.NewPrinter(out)

	if searchMDNS {
		var found []*mdns.Instance
		err := ui.RunWithSpinner(ctx, out, fmt.Sprintf("Browsing mDNS for %s...", mdns.ServiceType), func(ctx context.Context) error {
			scanner := mdns.NewScanner()
			scanner.Timeout = searchTimeout
			var err error
			found, err = scanner.Scan(ctx)
			return err
		})
		if err != nil {
			return err
		}
		printer.Table(mdnsTable(found))
		return nil
	}

	var found []foundDevice
	err := ui.RunWithSpinner(ctx, out, fmt.Sprintf("Searching for %s...", searchTarget), func(ctx context.Context) error {
		var err error
		found, err = searchSSDP(ctx)
		return err
	})
	if err != nil {
		printer.Failure("Search failed", err,
			"Check that the interface is up",
			"Multicast may be filtered by a firewall")
		return err
	}

	printer.Table(searchTable(found))
	return nil
}

func newHTTPUClient(ctx context.Context) (*httpu.HTTPUClient, error) {
	if searchIface == "" {
		return httpu.NewHTTPUClient()
	}
	addr, err := netif.NewResolver(searchIface, nil).Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return httpu.NewHTTPUClientAddr(addr.String())
}

func searchSSDP(ctx context.Context) ([]foundDevice, error) {
	client, err := newHTTPUClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open search socket: %w", err)
	}
	defer client.Close()

	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	responses, err := upnpssdp.RawSearch(searchCtx, client, searchTarget, searchSends)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("search: %w", err)
	}

	found := make([]foundDevice, 0, len(responses))
	for _, resp := range responses {
		found = append(found, describe(ctx, resp))
	}
	return found, nil
}

// describe fetches the description document behind one search response.
func describe(ctx context.Context, resp *http.Response) foundDevice {
	fd := foundDevice{
		USN:    resp.Header.Get("USN"),
		Server: resp.Header.Get("SERVER"),
	}
	loc, err := resp.Location()
	if err != nil {
		fd.Err = err
		return fd
	}
	fd.Location = loc.String()

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	root, err := goupnp.DeviceByURLCtx(ctx, loc)
	if err != nil {
		logging.Debug("Failed to fetch description",
			zap.String("location", fd.Location),
			zap.Error(err))
		fd.Err = err
		return fd
	}
	fd.Name = root.Device.FriendlyName
	fd.UDN = root.Device.UDN
	return fd
}

func searchTable(found []foundDevice) *ui.Table {
	t := ui.NewTable("Name", "UDN", "Location", "Server")
	t.Empty = "No devices answered."
	for _, fd := range found {
		name := fd.Name
		if fd.Err != nil {
			name = ui.FailureMarker + " " + fd.Err.Error()
		}
		udn := fd.UDN
		if udn == "" {
			udn = fd.USN
		}
		t.AddRow(name, udn, fd.Location, fd.Server)
	}
	return t
}

func mdnsTable(found []*mdns.Instance) *ui.Table {
	t := ui.NewTable("Name", "UDN", "Location", "Type")
	t.Empty = "No mDNS advertisements found."
	for _, inst := range found {
		t.AddRow(inst.Name, inst.Get("udn"), inst.LocationURL(), inst.Get("type"))
	}
	return t
}
