package netif

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticLister(ifaces ...Interface) Lister {
	return func(context.Context) ([]Interface, error) {
		// Hand out a copy; ListUp filters in place.
		return append([]Interface(nil), ifaces...), nil
	}
}

func prefixes(ss ...string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(ss))
	for _, s := range ss {
		out = append(out, netip.MustParsePrefix(s))
	}
	return out
}

var (
	eth0 = Interface{Name: "eth0", Flags: []string{"up", "broadcast", "multicast"}, Addrs: prefixes("fe80::1/64", "10.0.0.5/24")}
	wlan = Interface{Name: "wlan0", Flags: []string{"broadcast"}, Addrs: prefixes("192.168.1.7/24")}
	tun0 = Interface{Name: "tun0", Flags: []string{"up"}, Addrs: prefixes("fd00::2/64")}
)

func TestResolverResolve(t *testing.T) {
	tests := []struct {
		name    string
		iface   string
		want    netip.Addr
		wantErr error
	}{
		{name: "first IPv4 wins over IPv6", iface: "eth0", want: netip.MustParseAddr("10.0.0.5")},
		{name: "interface down", iface: "wlan0", wantErr: ErrInterfaceDown},
		{name: "IPv6 only", iface: "tun0", wantErr: ErrNoIPv4Address},
		{name: "missing", iface: "eth9", wantErr: ErrInterfaceNotFound},
	}

	lister := staticLister(eth0, wlan, tun0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewResolver(tt.iface, lister).Resolve(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, got.IsValid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolverPropagatesListError(t *testing.T) {
	boom := errors.New("netlink unavailable")
	r := NewResolver("eth0", func(context.Context) ([]Interface, error) { return nil, boom })
	_, err := r.Resolve(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestListUp(t *testing.T) {
	up, err := ListUp(context.Background(), staticLister(eth0, wlan, tun0))
	require.NoError(t, err)
	require.Len(t, up, 2)
	assert.Equal(t, "eth0", up[0].Name)
	assert.Equal(t, "tun0", up[1].Name)
}

func TestParseAddr(t *testing.T) {
	p, ok := parseAddr("192.168.1.7/24")
	require.True(t, ok)
	assert.Equal(t, "192.168.1.7", p.Addr().String())

	p, ok = parseAddr("10.1.2.3")
	require.True(t, ok)
	assert.Equal(t, 32, p.Bits())

	_, ok = parseAddr("garbage")
	assert.False(t, ok)
}

func TestDescription(t *testing.T) {
	ifc := Interface{Name: "eth0", HardwareAddr: "00:11:22:33:44:55", Addrs: prefixes("10.0.0.5/24")}
	assert.Equal(t, "10.0.0.5/24, 00:11:22:33:44:55", ifc.Description())
}

// List talks to the real host; it must at least not fail.
func TestListHost(t *testing.T) {
	ifaces, err := List(context.Background())
	require.NoError(t, err)
	for _, ifc := range ifaces {
		assert.NotEmpty(t, ifc.Name)
	}
}
