package mdns

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Instance is a publisher found by the Scanner.
type Instance struct {
	// Name is the service instance name, the device's friendly name.
	Name string

	// Hostname is the mDNS host name (e.g. "dp-8d7c6f4e.local.")
	Hostname string

	IP   string
	Port int

	// Metadata holds the TXT records, e.g. "path", "udn" and "type".
	Metadata map[string]string

	DiscoveredAt time.Time
}

func (i *Instance) String() string {
	return fmt.Sprintf("%s (%s) at %s", i.Name, i.Get("udn"), i.LocationURL())
}

// LocationURL is the description URL assembled from the address, port and
// path record.
func (i *Instance) LocationURL() string {
	path := i.Get("path")
	if path == "" {
		path = "/"
	}
	return "http://" + net.JoinHostPort(i.IP, strconv.Itoa(i.Port)) + path
}

// Get returns a TXT value, or "" if absent.
func (i *Instance) Get(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}
