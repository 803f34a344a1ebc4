// Package workflow runs the transporter's main loop.
//
// The Manager polls the radio on a fixed interval. When associated with the
// dashcam network and downloads are pending it runs a download pass; on the
// home network with uploads pending it runs an upload pass. Otherwise it tries
// to join whichever network still has work, dashcam first. Association
// failures are expected while driving and are swallowed; pass failures are
// logged and retried on a later tick. The loop only ends when its context is
// cancelled.
package workflow
