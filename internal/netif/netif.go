package netif

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"strings"

	psnet "github.com/shirou/gopsutil/v4/net"
)

var (
	// ErrInterfaceNotFound is returned when no interface has the given name.
	ErrInterfaceNotFound = errors.New("network interface not found")
	// ErrInterfaceDown is returned when the interface exists but is not up.
	ErrInterfaceDown = errors.New("network interface is not up")
	// ErrNoIPv4Address is returned when the interface has no IPv4 address.
	ErrNoIPv4Address = errors.New("no IPv4 address on interface")
)

// Interface is a snapshot of one network interface.
type Interface struct {
	Name         string
	Index        int
	MTU          int
	HardwareAddr string
	Flags        []string
	Addrs        []netip.Prefix
}

// Up reports whether the interface is administratively up.
func (i Interface) Up() bool {
	return slices.Contains(i.Flags, "up")
}

// IPv4 returns the first IPv4 address of the interface.
func (i Interface) IPv4() (netip.Addr, bool) {
	for _, p := range i.Addrs {
		if a := p.Addr(); a.Is4() {
			return a, true
		}
		if a := p.Addr(); a.Is4In6() {
			return a.Unmap(), true
		}
	}
	return netip.Addr{}, false
}

// Description is a one-line summary used in diagnostics.
func (i Interface) Description() string {
	parts := make([]string, 0, len(i.Addrs)+1)
	for _, p := range i.Addrs {
		parts = append(parts, p.String())
	}
	if i.HardwareAddr != "" {
		parts = append(parts, i.HardwareAddr)
	}
	return strings.Join(parts, ", ")
}

// Lister enumerates interfaces. List is the production implementation.
type Lister func(ctx context.Context) ([]Interface, error)

// List returns all interfaces on the host.
func List(ctx context.Context) ([]Interface, error) {
	stats, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	result := make([]Interface, 0, len(stats))
	for _, st := range stats {
		ifc := Interface{
			Name:         st.Name,
			Index:        st.Index,
			MTU:          st.MTU,
			HardwareAddr: st.HardwareAddr,
			Flags:        st.Flags,
		}
		for _, a := range st.Addrs {
			if p, ok := parseAddr(a.Addr); ok {
				ifc.Addrs = append(ifc.Addrs, p)
			}
		}
		result = append(result, ifc)
	}
	return result, nil
}

// ListUp returns the interfaces that are up.
func ListUp(ctx context.Context, list Lister) ([]Interface, error) {
	all, err := list(ctx)
	if err != nil {
		return nil, err
	}
	up := all[:0]
	for _, ifc := range all {
		if ifc.Up() {
			up = append(up, ifc)
		}
	}
	return up, nil
}

// Lookup finds the named interface and checks that it is up.
func Lookup(ctx context.Context, list Lister, name string) (Interface, error) {
	all, err := list(ctx)
	if err != nil {
		return Interface{}, err
	}
	for _, ifc := range all {
		if ifc.Name != name {
			continue
		}
		if !ifc.Up() {
			return ifc, fmt.Errorf("%s: %w", name, ErrInterfaceDown)
		}
		return ifc, nil
	}
	return Interface{}, fmt.Errorf("%s: %w", name, ErrInterfaceNotFound)
}

func parseAddr(s string) (netip.Prefix, bool) {
	if p, err := netip.ParsePrefix(s); err == nil {
		return p, true
	}
	if a, err := netip.ParseAddr(s); err == nil {
		return netip.PrefixFrom(a, a.BitLen()), true
	}
	return netip.Prefix{}, false
}

// Resolver resolves the current IPv4 address of one interface.
type Resolver struct {
	name string
	list Lister
}

// NewResolver returns a Resolver for the named interface. A nil list uses
// List.
func NewResolver(name string, list Lister) *Resolver {
	if list == nil {
		list = List
	}
	return &Resolver{name: name, list: list}
}

// Resolve returns the first IPv4 address of the interface. The interface
// must be up.
func (r *Resolver) Resolve(ctx context.Context) (netip.Addr, error) {
	ifc, err := Lookup(ctx, r.list, r.name)
	if err != nil {
		return netip.Addr{}, err
	}
	addr, ok := ifc.IPv4()
	if !ok {
		return netip.Addr{}, fmt.Errorf("%s: %w", r.name, ErrNoIPv4Address)
	}
	return addr, nil
}
