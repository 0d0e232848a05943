// Package device holds the advertised device record and its description
// document.
//
// A Record is an immutable snapshot: every address change produces a new
// Record via WithAddress and the old one is left untouched. The live snapshot
// is shared through a Store, which swaps whole records behind an atomic
// pointer so readers never observe a partially updated record.
//
//	store := device.NewStore(device.New(info, endpoint, time.Minute))
//	next := store.Load().WithAddress(netip.MustParseAddr("10.0.0.5"))
//	old := store.Swap(next)
//
// Render turns a Record into a UPnP device description document.
package device
