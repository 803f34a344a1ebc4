// Package staging owns the locked/ handoff directory between the download and
// upload passes: listing finished recordings, naming partial downloads, and
// sweeping partials abandoned by a crash.
package staging
