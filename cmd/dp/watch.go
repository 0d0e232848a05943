package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	gossdp "github.com/koron/go-ssdp"
	"github.com/spf13/cobra"

	"github.com/sparse/dp/internal/logging"
	"github.com/sparse/dp/internal/ui"
)

// Watch command flags
var (
	watchIface  string
	watchFilter string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print SSDP alive and byebye notifications",
	Long: `Listen on the SSDP multicast group and print every ssdp:alive and
ssdp:byebye notification until interrupted.

Use --filter to only show notifications whose USN contains a string, such as
the UUID of a device published with 'dp serve'.`,
	Example: `  dp watch
  dp watch -i eth0 --filter 6f1c2a4e`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchIface, "iface", "i", "", "Listen on this interface only (default: all)")
	watchCmd.Flags().StringVar(&watchFilter, "filter", "", "Only show notifications whose USN contains this")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(""); err != nil {
		return err
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchIface != "" {
		ifi, err := net.InterfaceByName(watchIface)
		if err != nil {
			return fmt.Errorf("%s: %w", watchIface, err)
		}
		gossdp.Interfaces = []net.Interface{*ifi}
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.Header("SSDP Watch", "dp watch",
		ui.Detail{Key: "Interface", Value: orDefault(watchIface, "all")},
		ui.Detail{Key: "Filter", Value: orDefault(watchFilter, "none")},
	)

	var mu sync.Mutex
	emit := func(marker, usn, detail string) {
		if watchFilter != "" && !strings.Contains(usn, watchFilter) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		printer.Println(fmt.Sprintf("%s %s %s %s",
			ui.TimestampStyle.Render(time.Now().Format("15:04:05")),
			marker, usn, ui.TimestampStyle.Render(detail)))
	}

	m := &gossdp.Monitor{
		Alive: func(msg *gossdp.AliveMessage) {
			emit(ui.AliveStyle.Render("alive  "), msg.USN,
				fmt.Sprintf("%s max-age=%d from %s", msg.Location, msg.MaxAge(), msg.From))
		},
		Bye: func(msg *gossdp.ByeMessage) {
			emit(ui.ByebyeStyle.Render("byebye "), msg.USN, fmt.Sprintf("from %s", msg.From))
		},
	}
	if err := m.Start(); err != nil {
		return fmt.Errorf("failed to join SSDP group: %w", err)
	}
	defer m.Close()

	<-ctx.Done()
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
