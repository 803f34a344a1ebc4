// Package transfer implements the download and upload passes that move locked
// recordings from the dashcam to the staging directory and from there to the
// home targets.
//
// Both passes share a State whose two completion flags gate re-entry. Starting
// one pass clears the other pass's flag so that a finished upload does not hide
// new recordings on the next dashcam visit, and vice versa.
//
// Failures are tagged with markers such as ErrIntegrityMismatch or ErrUpload.
// Kind maps an error to its category name for logs, history and status output.
package transfer
