// Package history keeps an append-only SQLite journal of per-file transfer
// outcomes for the status and history commands.
//
// The journal is an audit trail only. The staging directory remains the source
// of truth for what still needs to move, and a journal write failure never
// fails a pass.
package history
