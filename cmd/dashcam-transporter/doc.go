// Package main hosts the dashcam-transporter entrypoint and command graph.
//
// The `run` command starts the unattended transfer loop in the foreground,
// which is how the systemd unit launches it. The remaining commands either
// talk to that process over its Unix socket (status, history, test-notify) or
// operate directly on local state such as the staging directory, the radio
// and the settings file, so they keep working while the daemon is stopped.
package main
