// Package preflight provides readiness checks for the filesystem paths,
// binaries and upload targets the transporter depends on.
//
// The CLI "status" and "check" commands render these results; the daemon logs
// a dependency snapshot at startup. Target checks are gated by their enabled
// flags.
package preflight
