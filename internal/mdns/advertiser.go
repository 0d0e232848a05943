package mdns

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/sparse/dp/internal/device"
	"github.com/sparse/dp/internal/logging"
)

const (
	// ServiceType is the mDNS service type the description endpoint is
	// registered under.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."
)

// registration is the part of *zeroconf.Server the Advertiser uses.
type registration interface {
	Shutdown()
}

type registerFunc func(instance, service, domain string, port int, host string, ips []string, text []string, ifaces []net.Interface) (registration, error)

func registerProxy(instance, service, domain string, port int, host string, ips []string, text []string, ifaces []net.Interface) (registration, error) {
	return zeroconf.RegisterProxy(instance, service, domain, port, host, ips, text, ifaces)
}

// Advertiser keeps one mDNS registration per announced record.
type Advertiser struct {
	iface    string
	register registerFunc

	mu      sync.Mutex
	servers map[string]registration // keyed by location URL
}

// NewAdvertiser returns an Advertiser that registers on the named interface.
// An empty name registers on every multicast interface.
func NewAdvertiser(iface string) *Advertiser {
	return &Advertiser{
		iface:    iface,
		register: registerProxy,
		servers:  make(map[string]registration),
	}
}

// Announce registers rec. Announcing a record that is already registered is
// a no-op; zeroconf answers queries for it on its own.
func (a *Advertiser) Announce(_ context.Context, rec *device.Record) error {
	if !rec.Published() {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.servers[rec.LocationURL]; ok {
		return nil
	}

	var ifaces []net.Interface
	if a.iface != "" {
		ifi, err := net.InterfaceByName(a.iface)
		if err != nil {
			return fmt.Errorf("mdns interface %s: %w", a.iface, err)
		}
		ifaces = []net.Interface{*ifi}
	}

	srv, err := a.register(rec.FriendlyName, ServiceType, ServiceDomain, rec.Endpoint.Port,
		HostName(rec), []string{rec.BoundAddress.String()}, TXT(rec), ifaces)
	if err != nil {
		return fmt.Errorf("mdns register %s: %w", rec.LocationURL, err)
	}
	a.servers[rec.LocationURL] = srv

	logging.Info("mDNS service registered",
		zap.String("instance", rec.FriendlyName),
		zap.String("host", HostName(rec)),
		zap.Int("port", rec.Endpoint.Port))
	return nil
}

// Withdraw shuts down the registration for rec, if any.
func (a *Advertiser) Withdraw(_ context.Context, rec *device.Record) error {
	if !rec.Published() {
		return nil
	}

	a.mu.Lock()
	srv, ok := a.servers[rec.LocationURL]
	delete(a.servers, rec.LocationURL)
	a.mu.Unlock()

	if ok {
		srv.Shutdown()
		logging.Info("mDNS service withdrawn", zap.String("instance", rec.FriendlyName))
	}
	return nil
}

// Close shuts down every remaining registration.
func (a *Advertiser) Close() error {
	a.mu.Lock()
	servers := a.servers
	a.servers = make(map[string]registration)
	a.mu.Unlock()

	for _, srv := range servers {
		srv.Shutdown()
	}
	return nil
}

// HostName is the mDNS host the service points at: "dp-" followed by the
// first UUID group.
func HostName(rec *device.Record) string {
	id, _, _ := strings.Cut(rec.UUID, "-")
	return "dp-" + strings.ToLower(id)
}

// TXT builds the TXT records for rec.
func TXT(rec *device.Record) []string {
	return []string{
		"path=" + rec.Endpoint.LocationPath,
		"udn=" + rec.UDN(),
		"type=" + rec.DeviceType,
	}
}
