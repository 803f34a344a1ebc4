// Package ipc exposes the running transporter over JSON-RPC on a Unix socket
// and ships the matching client used by the CLI status and history commands.
package ipc
