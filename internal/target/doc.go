// Package target uploads staged recordings to the home destinations.
//
// Every Target writes to <storage_path>/locked/<name>, prepares its directory
// tree once per process, and verifies the remote copy before reporting success.
// A verification failure wraps ErrVerify.
package target
