// Package netif resolves the IPv4 address of a named network interface and
// lists the interfaces that are up, for startup validation and diagnostics.
//
// Interface data comes from gopsutil so the same code path serves Linux,
// macOS and Windows hosts.
package netif
