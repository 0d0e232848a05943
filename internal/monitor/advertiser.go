package monitor

import (
	"context"
	"errors"
	"net/netip"

	"github.com/sparse/dp/internal/device"
)

// Resolver yields the current address of the monitored interface.
type Resolver interface {
	Resolve(ctx context.Context) (netip.Addr, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (netip.Addr, error)

func (f ResolverFunc) Resolve(ctx context.Context) (netip.Addr, error) {
	return f(ctx)
}

// Advertiser makes a record known to, or forgotten by, the network.
type Advertiser interface {
	Announce(ctx context.Context, rec *device.Record) error
	Withdraw(ctx context.Context, rec *device.Record) error
}

// Advertisers fans each call out to every member in order. A failing member
// does not stop the others.
type Advertisers []Advertiser

func (as Advertisers) Announce(ctx context.Context, rec *device.Record) error {
	var errs []error
	for _, a := range as {
		errs = append(errs, a.Announce(ctx, rec))
	}
	return errors.Join(errs...)
}

func (as Advertisers) Withdraw(ctx context.Context, rec *device.Record) error {
	var errs []error
	for _, a := range as {
		errs = append(errs, a.Withdraw(ctx, rec))
	}
	return errors.Join(errs...)
}
