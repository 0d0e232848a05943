// Package server serves the device description document over HTTP.
//
// One listener is bound on all interfaces at startup and keeps its port for
// the life of the process, so the LOCATION URLs announced over SSDP stay
// valid across address changes. Every request reads the current record from
// the device.Store; a request that overlaps an address change sees either
// the old or the new record, never a mix.
//
// # Routes
//
//	GET  <location path>  description XML, text/xml; charset="utf-8"
//	                      503 until the interface address is resolved
//	GET  /metrics         Prometheus metrics
//	GET  /ws              WebSocket feed of the current record
//
// Other methods on the location path get 405 and other paths get 404.
//
// # Record Feed
//
// A client connected to /ws receives the current record as one JSON text
// message on connect and again after every change:
//
//	{"udn":"uuid:...","friendlyName":"discovery-app","address":"10.0.0.9",
//	 "location":"http://10.0.0.9:8080/desc.xml","maxAge":60,"published":true}
//
// The feed is write-only; messages sent by the client are discarded.
package server
