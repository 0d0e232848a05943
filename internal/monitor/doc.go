// Package monitor keeps the published device record in step with the
// address of the configured network interface.
//
// A Monitor polls its Resolver on a fixed interval. When the resolved
// address differs from the bound address of the current record, it swaps a
// new record into the store, withdraws the old one if it had been announced,
// and then announces the new one. Resolution failures leave the current
// record in place.
package monitor
