package device

import (
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RootDeviceType is the default UPnP device type advertised when none is
// configured.
const RootDeviceType = "urn:schemas-upnp-org:device:Basic:1"

// Info is the descriptive part of a device. It is fixed at startup.
type Info struct {
	UUID             string
	FriendlyName     string
	Manufacturer     string
	ModelName        string
	ModelDescription string
	DeviceType       string
}

// Endpoint describes where the description document and the presentation
// page are served. Only the host part of the resulting URLs changes at
// runtime.
type Endpoint struct {
	// Port of the description server. Fixed before the first announcement.
	Port int
	// LocationPath is the path of the description document.
	LocationPath string
	// PresentationPort is the port of the presentation page. 0 omits the
	// port from the URL.
	PresentationPort int
	// PresentationPath is the path of the presentation page.
	PresentationPath string
}

// LocationURL returns the description document URL for addr.
func (e Endpoint) LocationURL(addr netip.Addr) string {
	return composeURL(addr, e.Port, e.LocationPath)
}

// PresentationURL returns the presentation page URL for addr.
func (e Endpoint) PresentationURL(addr netip.Addr) string {
	return composeURL(addr, e.PresentationPort, e.PresentationPath)
}

func composeURL(addr netip.Addr, port int, path string) string {
	host := addr.String()
	if port > 0 {
		host = netip.AddrPortFrom(addr, uint16(port)).String()
	}
	u := url.URL{Scheme: "http", Host: host, Path: NormalizePath(path)}
	return u.String()
}

// NormalizePath makes sure p is rooted.
func NormalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

// NormalizeType expands a short device type into its URN form:
// "MediaServer" and "MediaServer:1" both become
// "urn:schemas-upnp-org:device:MediaServer:1". Full URNs are returned
// unchanged.
func NormalizeType(t string) string {
	t = strings.TrimSpace(t)
	switch {
	case t == "":
		return RootDeviceType
	case strings.HasPrefix(t, "urn:"):
		return t
	case strings.Contains(t, ":"):
		return "urn:schemas-upnp-org:device:" + t
	default:
		return "urn:schemas-upnp-org:device:" + t + ":1"
	}
}

// Record is an immutable snapshot of everything needed to announce and
// describe the device. Never modify a Record that has been stored; derive a
// new one with WithAddress instead.
type Record struct {
	Info
	Endpoint Endpoint

	LocationURL     string
	PresentationURL string
	CacheLifetime   time.Duration

	// BoundAddress is the zero Addr until the interface address is first
	// resolved.
	BoundAddress netip.Addr
}

// New creates the startup record. It is not published until an address has
// been bound with WithAddress.
func New(info Info, ep Endpoint, cacheLifetime time.Duration) *Record {
	info.DeviceType = NormalizeType(info.DeviceType)
	ep.LocationPath = NormalizePath(ep.LocationPath)
	ep.PresentationPath = NormalizePath(ep.PresentationPath)
	return &Record{
		Info:          info,
		Endpoint:      ep,
		CacheLifetime: cacheLifetime,
	}
}

// WithAddress returns a copy of r bound to addr, with both URLs recomposed.
func (r *Record) WithAddress(addr netip.Addr) *Record {
	next := *r
	next.BoundAddress = addr
	if addr.IsValid() {
		next.LocationURL = r.Endpoint.LocationURL(addr)
		next.PresentationURL = r.Endpoint.PresentationURL(addr)
	} else {
		next.LocationURL = ""
		next.PresentationURL = ""
	}
	return &next
}

// Published reports whether the record has a bound address and can be
// announced.
func (r *Record) Published() bool {
	return r != nil && r.BoundAddress.IsValid()
}

// UDN is the unique device name, "uuid:<UUID>".
func (r *Record) UDN() string {
	return "uuid:" + r.UUID
}

// MaxAge is the cache lifetime in whole seconds, as carried in
// CACHE-CONTROL headers.
func (r *Record) MaxAge() int {
	return int(r.CacheLifetime / time.Second)
}

// String is used in log fields.
func (r *Record) String() string {
	if !r.Published() {
		return r.UDN() + " (unbound)"
	}
	return r.UDN() + " at " + r.LocationURL + " max-age=" + strconv.Itoa(r.MaxAge())
}
