// internal/organizer/errors.go
package organizer

import "errors"

var (
	// ErrEmptyTitle indicates the metadata title sanitized to nothing, so no
	// target folder can be derived.
	ErrEmptyTitle = errors.New("title is empty after sanitization")

	// ErrPlacementFailed indicates the copy or move operation failed.
	ErrPlacementFailed = errors.New("failed to place file")
)
