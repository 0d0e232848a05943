package ssdp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"
)

const (
	multicastTTL = 2
	readTimeout  = 250 * time.Millisecond
	writeTimeout = time.Second
	maxDatagram  = 8192
)

// Packet is one received datagram.
type Packet struct {
	Data []byte
	From net.Addr
}

// Transport moves SSDP datagrams. Receive is called from a single
// goroutine; the send methods may be called concurrently.
type Transport interface {
	Multicast(ctx context.Context, data []byte) error
	Unicast(ctx context.Context, data []byte, to net.Addr) error
	Receive(ctx context.Context) (Packet, error)
	Close() error
}

// MulticastTransport is the UDP Transport bound to one interface. It listens
// on the SSDP group and sends from a separate ephemeral socket so search
// responses do not originate from port 1900.
type MulticastTransport struct {
	iface string
	group *net.UDPAddr
	recv  *ipv4.PacketConn
	send  *ipv4.PacketConn
	buf   []byte
}

// Listen joins the SSDP multicast group on the named interface.
func Listen(ifaceName string) (*MulticastTransport, error) {
	ifi, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("interface %s: %w", ifaceName, err)
	}
	group, err := net.ResolveUDPAddr("udp4", MulticastAddress)
	if err != nil {
		return nil, err
	}

	rc, err := net.ListenMulticastUDP("udp4", ifi, group)
	if err != nil {
		return nil, fmt.Errorf("join %s on %s: %w", MulticastAddress, ifaceName, err)
	}

	sc, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("open send socket: %w", err)
	}
	send := ipv4.NewPacketConn(sc)
	if err := configureSender(send, ifi); err != nil {
		rc.Close()
		sc.Close()
		return nil, fmt.Errorf("configure send socket on %s: %w", ifaceName, err)
	}

	return &MulticastTransport{
		iface: ifaceName,
		group: group,
		recv:  ipv4.NewPacketConn(rc),
		send:  send,
		buf:   make([]byte, maxDatagram),
	}, nil
}

func configureSender(pc *ipv4.PacketConn, ifi *net.Interface) error {
	if err := pc.SetMulticastInterface(ifi); err != nil {
		return err
	}
	if err := pc.SetMulticastTTL(multicastTTL); err != nil {
		return err
	}
	return pc.SetMulticastLoopback(true)
}

// Multicast sends data to the SSDP group.
func (t *MulticastTransport) Multicast(ctx context.Context, data []byte) error {
	return t.write(ctx, data, t.group)
}

// Unicast sends data to a single peer.
func (t *MulticastTransport) Unicast(ctx context.Context, data []byte, to net.Addr) error {
	return t.write(ctx, data, to)
}

func (t *MulticastTransport) write(ctx context.Context, data []byte, to net.Addr) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := t.send.SetWriteDeadline(deadline); err != nil {
		return err
	}
	_, err := t.send.WriteTo(data, nil, to)
	return err
}

// Receive blocks until a datagram arrives or ctx is done.
func (t *MulticastTransport) Receive(ctx context.Context) (Packet, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Packet{}, err
		}
		if err := t.recv.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return Packet{}, err
		}
		n, _, src, err := t.recv.ReadFrom(t.buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return Packet{}, err
		}
		data := make([]byte, n)
		copy(data, t.buf[:n])
		return Packet{Data: data, From: src}, nil
	}
}

// Close releases both sockets.
func (t *MulticastTransport) Close() error {
	return errors.Join(t.recv.Close(), t.send.Close())
}

func (t *MulticastTransport) String() string {
	return fmt.Sprintf("ssdp@%s", t.iface)
}
