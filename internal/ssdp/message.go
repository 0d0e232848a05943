package ssdp

import (
	"bytes"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/sparse/dp/internal/device"
	"github.com/sparse/dp/internal/version"
)

const (
	// MulticastAddress is the SSDP IPv4 multicast group and port.
	MulticastAddress = "239.255.255.250:1900"

	// RootDevice is the notification type shared by all root devices.
	RootDevice = "upnp:rootdevice"
	// SearchAll is the search target matching every identity.
	SearchAll = "ssdp:all"

	NTSAlive  = "ssdp:alive"
	NTSByebye = "ssdp:byebye"

	discoverMan = `"ssdp:discover"`
)

// DefaultServer returns the SERVER header value, "OS/version UPnP/1.1
// product/version".
func DefaultServer() string {
	return fmt.Sprintf("%s/%s UPnP/1.1 %s", runtime.GOOS, runtime.GOARCH, version.Product())
}

// Identity is one notification type under which the device is announced.
type Identity struct {
	NT  string
	USN string
}

// Identities lists the identities of rec in announcement order.
func Identities(rec *device.Record) []Identity {
	udn := rec.UDN()
	ids := []Identity{
		{NT: RootDevice, USN: udn + "::" + RootDevice},
		{NT: udn, USN: udn},
	}
	if rec.DeviceType != "" && rec.DeviceType != RootDevice {
		ids = append(ids, Identity{NT: rec.DeviceType, USN: udn + "::" + rec.DeviceType})
	}
	return ids
}

type header struct {
	key, value string
}

func encode(startLine string, headers []header) []byte {
	var b bytes.Buffer
	b.WriteString(startLine)
	b.WriteString("\r\n")
	for _, h := range headers {
		b.WriteString(h.key)
		b.WriteByte(':')
		if h.value != "" {
			b.WriteByte(' ')
			b.WriteString(h.value)
		}
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return b.Bytes()
}

func maxAge(rec *device.Record) string {
	return "max-age=" + strconv.Itoa(rec.MaxAge())
}

// AliveMessage builds the ssdp:alive NOTIFY for one identity of rec.
func AliveMessage(rec *device.Record, id Identity, server string) []byte {
	return encode("NOTIFY * HTTP/1.1", []header{
		{"HOST", MulticastAddress},
		{"CACHE-CONTROL", maxAge(rec)},
		{"LOCATION", rec.LocationURL},
		{"NT", id.NT},
		{"NTS", NTSAlive},
		{"SERVER", server},
		{"USN", id.USN},
	})
}

// ByebyeMessage builds the ssdp:byebye NOTIFY for one identity.
func ByebyeMessage(id Identity) []byte {
	return encode("NOTIFY * HTTP/1.1", []header{
		{"HOST", MulticastAddress},
		{"NT", id.NT},
		{"NTS", NTSByebye},
		{"USN", id.USN},
	})
}

// SearchResponse builds the unicast answer to an M-SEARCH for one identity.
func SearchResponse(rec *device.Record, id Identity, server string, now time.Time) []byte {
	return encode("HTTP/1.1 200 OK", []header{
		{"CACHE-CONTROL", maxAge(rec)},
		{"DATE", now.UTC().Format(http.TimeFormat)},
		{"EXT", ""},
		{"LOCATION", rec.LocationURL},
		{"SERVER", server},
		{"ST", id.NT},
		{"USN", id.USN},
	})
}
