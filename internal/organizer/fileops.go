// internal/organizer/fileops.go
package organizer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// copyFile copies src to dst, preserving the source's modification time.
// The destination directory must already exist. An existing destination is
// overwritten.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: stat source: %v", ErrPlacementFailed, err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open source: %v", ErrPlacementFailed, err)
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: create destination: %v", ErrPlacementFailed, err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("%w: copy content: %v", ErrPlacementFailed, err)
	}
	if err := dstFile.Sync(); err != nil {
		_ = dstFile.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("%w: sync: %v", ErrPlacementFailed, err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("%w: close destination: %v", ErrPlacementFailed, err)
	}

	// Best effort timestamp preservation.
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}

// moveFile moves src to dst. A plain rename is tried first; across volumes
// it falls back to copy-then-delete, and the source is only removed after
// the destination write completed.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("%w: remove source after copy: %v", ErrPlacementFailed, err)
	}
	return nil
}

// place copies or moves src to dst, creating the destination directory.
func place(src, dst string, move bool) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %v", ErrPlacementFailed, err)
	}
	if move {
		return moveFile(src, dst)
	}
	return copyFile(src, dst)
}
