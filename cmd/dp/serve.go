package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sparse/dp/internal/config"
	"github.com/sparse/dp/internal/device"
	"github.com/sparse/dp/internal/logging"
	"github.com/sparse/dp/internal/mdns"
	"github.com/sparse/dp/internal/monitor"
	"github.com/sparse/dp/internal/netif"
	"github.com/sparse/dp/internal/server"
	"github.com/sparse/dp/internal/ssdp"
	"github.com/sparse/dp/internal/supervisor"
	"github.com/sparse/dp/internal/ui"
)

// Serve command flags
var (
	ifaceName        string
	deviceName       string
	presentationPath string
	deviceUUID       string
	description      string
	manufacturer     string
	model            string
	deviceType       string
	presentationPort int
	cacheLifetime    int
	httpPort         int
	descriptionPath  string
	pollInterval     time.Duration
	enableMDNS       bool
	logLevel         string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Publish the device until interrupted",
	Long: `Publish a UPnP root device on one network interface.

The description document is served over HTTP on all addresses. The device is
announced on the SSDP multicast group once the interface has an IPv4 address,
re-announced at half the cache lifetime, and re-published whenever the address
changes. Interrupt with Ctrl-C to withdraw the device and exit.

Flags override values from the config file.`,
	Example: `  # Publish on eth0 with defaults
  dp serve -i eth0

  # Name the device and point its presentation page at port 8080
  dp serve -i eth0 -n "Living room" -p 8080 -l /ui

  # Fixed UUID and a MediaServer type, announced for 30 minutes
  dp serve -i eth0 -u 6f1c2a4e-1b2c-4d5e-8f90-0123456789ab -t MediaServer:1 -c 30

  # Also advertise over mDNS, with debug logging
  dp serve -i wlan0 --mdns --log-level debug`,
	RunE: runServe,
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&ifaceName, "iface", "i", "", "Network interface to publish on (required)")
	f.StringVarP(&deviceName, "name", "n", "", "Friendly name of the device")
	f.StringVarP(&presentationPath, "location", "l", "", "Path of the presentation page")
	f.StringVarP(&deviceUUID, "uuid", "u", "", "Device UUID (default: random per run)")
	f.StringVarP(&description, "description", "d", "", "Model description")
	f.StringVarP(&manufacturer, "manufacturer", "m", "", "Manufacturer name")
	f.StringVarP(&model, "model", "o", "", "Model name")
	f.StringVarP(&deviceType, "type", "t", "", "Device type, e.g. Basic:1 or a full URN")
	f.IntVarP(&presentationPort, "port", "p", 0, "Port of the presentation page (0 = no port in URL)")
	f.IntVarP(&cacheLifetime, "cache-lifetime", "c", 1, "Cache lifetime in minutes")
	f.IntVar(&httpPort, "http-port", 0, "Port of the description server (0 = pick a free port)")
	f.StringVar(&descriptionPath, "description-path", "/", "Path of the description document")
	f.DurationVar(&pollInterval, "poll-interval", monitor.DefaultInterval, "How often to check the interface address")
	f.BoolVar(&enableMDNS, "mdns", false, "Also advertise the description URL over mDNS")
	f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// applyServeFlags copies the flags that were set on cmd over cfg.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}

	set("iface", func() { cfg.Interface = ifaceName })
	set("name", func() { cfg.Device.Name = deviceName })
	set("location", func() { cfg.HTTP.PresentationPath = presentationPath })
	set("uuid", func() { cfg.Device.UUID = deviceUUID })
	set("description", func() { cfg.Device.Description = description })
	set("manufacturer", func() { cfg.Device.Manufacturer = manufacturer })
	set("model", func() { cfg.Device.Model = model })
	set("type", func() { cfg.Device.Type = deviceType })
	set("port", func() { cfg.HTTP.PresentationPort = presentationPort })
	set("cache-lifetime", func() { cfg.Advertise.CacheLifetime = cacheLifetime })
	set("http-port", func() { cfg.HTTP.Port = httpPort })
	set("description-path", func() { cfg.HTTP.DescriptionPath = descriptionPath })
	set("poll-interval", func() { cfg.Advertise.PollInterval = pollInterval })
	set("mdns", func() { cfg.Advertise.MDNS = enableMDNS })
	set("log-level", func() { cfg.LogLevel = logLevel })
}

// serveLogLevel picks the level for a long-running publisher: the config
// value, then DP_LOG_LEVEL, then info.
func serveLogLevel(cfg *config.Config) string {
	if cfg.LogLevel != "" {
		return cfg.LogLevel
	}
	if env := os.Getenv(logging.LogLevelEnvVar); env != "" {
		return env
	}
	return "info"
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := ui.NewPrinter(cmd.OutOrStdout())

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)

	if err := logging.Initialize(serveLogLevel(cfg)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrInterfaceRequired) {
			return interfaceUnavailable(ctx, printer, err)
		}
		return err
	}

	if _, err := netif.Lookup(ctx, netif.List, cfg.Interface); err != nil {
		if errors.Is(err, netif.ErrInterfaceNotFound) || errors.Is(err, netif.ErrInterfaceDown) {
			return interfaceUnavailable(ctx, printer, err)
		}
		return err
	}

	// The record needs the server's port, and the server needs the store.
	store := device.NewStore(nil)
	srv, err := server.Listen(cfg.HTTP.Port, cfg.HTTP.DescriptionPath, store)
	if err != nil {
		return err
	}
	defer srv.Close()
	rec := device.New(cfg.DeviceInfo(), cfg.Endpoint(srv.Port()), cfg.CacheLifetime())
	store.Swap(rec)

	transport, err := ssdp.Listen(cfg.Interface)
	if err != nil {
		return err
	}
	defer transport.Close()

	pub := ssdp.NewPublisher(transport, cfg.CacheLifetime())
	advertisers := monitor.Advertisers{pub}
	if cfg.Advertise.MDNS {
		mdnsAdv := mdns.NewAdvertiser(cfg.Interface)
		defer mdnsAdv.Close()
		advertisers = append(advertisers, mdnsAdv)
	}

	mon := monitor.New(store, netif.NewResolver(cfg.Interface, nil), advertisers,
		monitor.WithInterval(cfg.PollInterval()))

	printer.Header("SSDP Publisher", "dp serve",
		ui.Detail{Key: "Interface", Value: cfg.Interface},
		ui.Detail{Key: "Name", Value: rec.FriendlyName},
		ui.Detail{Key: "UDN", Value: rec.UDN()},
		ui.Detail{Key: "Type", Value: rec.DeviceType},
		ui.Detail{Key: "Description", Value: fmt.Sprintf("http://<addr>:%d%s", srv.Port(), rec.Endpoint.LocationPath)},
		ui.Detail{Key: "Cache", Value: cfg.CacheLifetime().String()},
		ui.Detail{Key: "mDNS", Value: strconv.FormatBool(cfg.Advertise.MDNS)},
	)

	logging.Info("Starting publisher",
		zap.String("interface", cfg.Interface),
		zap.String("udn", rec.UDN()),
		zap.Int("http_port", srv.Port()),
		zap.Duration("reannounce", ssdp.ReannounceInterval(cfg.CacheLifetime())),
		zap.Duration("poll_interval", cfg.PollInterval()))

	return supervisor.New(store, advertisers, srv, pub, mon).Run(ctx)
}

// interfaceUnavailable prints the up interfaces and returns an error that
// exits with exitBadArguments.
func interfaceUnavailable(ctx context.Context, printer *ui.Printer, cause error) error {
	printer.Failure("Network interface unavailable", cause,
		"Pass one of the interfaces below with --iface",
		"Check that the interface is up and has an IPv4 address")
	printer.Newline()

	up, err := netif.ListUp(ctx, netif.List)
	if err != nil {
		logging.Warn("Failed to list interfaces", zap.Error(err))
	} else {
		printer.Table(interfaceTable(up))
	}
	return &exitError{code: exitBadArguments, err: cause}
}
