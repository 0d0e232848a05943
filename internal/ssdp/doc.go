// Package ssdp announces a device record over the Simple Service Discovery
// Protocol.
//
// # Identities
//
// A root device is announced under three notification types, each with its
// own USN:
//
//	NT: upnp:rootdevice                        USN: uuid:<UUID>::upnp:rootdevice
//	NT: uuid:<UUID>                            USN: uuid:<UUID>
//	NT: urn:schemas-upnp-org:device:<type>:<v> USN: uuid:<UUID>::<device type>
//
// # Wire Format
//
// Notifications are sent to 239.255.255.250:1900 with a multicast TTL of 2.
// Header order is fixed:
//
//	NOTIFY * HTTP/1.1
//	HOST: 239.255.255.250:1900
//	CACHE-CONTROL: max-age=60
//	LOCATION: http://10.0.0.5:8080/desc.xml
//	NT: upnp:rootdevice
//	NTS: ssdp:alive
//	SERVER: linux/amd64 UPnP/1.1 dp/v1.0.0
//	USN: uuid:<UUID>::upnp:rootdevice
//
// A byebye carries only HOST, NT, NTS and USN. Search responses are unicast
// to the requester:
//
//	HTTP/1.1 200 OK
//	CACHE-CONTROL: max-age=60
//	DATE: Mon, 02 Jan 2006 15:04:05 GMT
//	EXT:
//	LOCATION: http://10.0.0.5:8080/desc.xml
//	SERVER: linux/amd64 UPnP/1.1 dp/v1.0.0
//	ST: upnp:rootdevice
//	USN: uuid:<UUID>::upnp:rootdevice
//
// # Lifecycle
//
// A Publisher is either unpublished or alive for exactly one record.
// Announce makes a record alive, Withdraw makes it unpublished again, and
// Serve repeats the alive notifications every half cache lifetime and answers
// M-SEARCH requests for the alive record. An address change is always
// Withdraw(old) followed by Announce(new); sends are serialized so a periodic
// re-announcement never lands between the two.
package ssdp
