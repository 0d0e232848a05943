// Package mdns mirrors the SSDP announcement over multicast DNS.
//
// The Advertiser registers the device description endpoint as an
// "_http._tcp" service in the "local." domain, using the bound interface
// address as the only A record. Withdrawing the record shuts the
// registration down, which sends the mDNS goodbye (TTL 0) packets.
//
// TXT records carry enough to find the description document without SSDP:
//
//	path=/desc.xml
//	udn=uuid:8d7c6f4e-1b2a-4c3d-9e8f-0a1b2c3d4e5f
//	type=urn:schemas-upnp-org:device:Basic:1
//
// The Scanner browses for those services and returns the instances that
// carry a udn record, which is how "dp search --mdns" finds other
// publishers.
package mdns
