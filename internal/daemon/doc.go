// Package daemon hosts the long-running transporter: it holds the
// single-instance lock, waits for usable settings, sweeps stale partial
// downloads, and runs the transfer loop alongside the status LED.
//
// Status aggregates the loop state, staging directory contents and the
// transfer history totals for the IPC status call.
package daemon
