// Package supervisor runs the long-lived services of a publisher under one
// suture tree and performs the final withdrawal on shutdown.
//
// A service that returns an error or panics is restarted on its own with
// backoff; its siblings keep running. When the context passed to Run is
// cancelled the tree stops every service, then Run sends one last
// withdrawal for the current record, bounded by FinalWithdrawTimeout.
package supervisor
