package fsutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir ensures a directory exists.
func EnsureDir(p string) error {
	if err := os.MkdirAll(p, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", p, err)
	}
	return nil
}

// EnsurePath ensures the parent directory of a file path exists.
func EnsurePath(p string) error {
	return EnsureDir(filepath.Dir(p))
}

// CopyFile copies the regular file src to dst, creating the parent
// directory of dst as needed. The copy stops when ctx is canceled.
func CopyFile(ctx context.Context, src, dst string) error {
	sfi, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !sfi.Mode().IsRegular() {
		return fmt.Errorf("copying %s: not a regular file (%q)", src, sfi.Mode().String())
	}
	if err := EnsurePath(dst); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := Copy(ctx, out, Reader(ctx, in)); err != nil {
		out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
