package transfer

import (
	"errors"
	"fmt"
	"strings"
)

// Error markers for pass failures. Test with errors.Is.
var (
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrStream            = errors.New("stream failure")
	ErrRename            = errors.New("rename failure")
	ErrIntegrityMismatch = errors.New("integrity mismatch")
	ErrRemoteDelete      = errors.New("remote delete failure")
	ErrUpload            = errors.New("upload failure")
	ErrUploadVerify      = errors.New("upload verify mismatch")
	ErrListing           = errors.New("listing failure")
	ErrStaging           = errors.New("staging failure")
)

var kinds = []struct {
	marker error
	name   string
}{
	{ErrCapacityExceeded, "CAPACITY_EXCEEDED"},
	{ErrStream, "STREAM_FAILURE"},
	{ErrRename, "RENAME_FAILURE"},
	{ErrIntegrityMismatch, "INTEGRITY_MISMATCH"},
	{ErrRemoteDelete, "REMOTE_DELETE_FAILURE"},
	{ErrUploadVerify, "UPLOAD_VERIFY_MISMATCH"},
	{ErrUpload, "UPLOAD_FAILURE"},
	{ErrListing, "LISTING_FAILURE"},
	{ErrStaging, "STAGING_FAILURE"},
}

// Wrap builds an error message that includes operation context while tagging it
// with marker for later classification.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrStaging
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the taxonomy name for err, "CANCELED" for context cancellation,
// or "UNKNOWN".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.name
		}
	}
	if isCanceled(err) {
		return "CANCELED"
	}
	return "UNKNOWN"
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "transfer failure"
	}
	return strings.Join(parts, ": ")
}
