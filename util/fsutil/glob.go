package fsutil

import (
	"os"
	"path/filepath"

	"github.com/mattn/go-zglob"
)

// Glob returns the regular files under root matching pattern, which is
// relative to root and may contain "**". Rel is set relative to root.
// This method uses the implementation in github.com/mattn/go-zglob.
func Glob(root, pattern string) ([]Hostfile, error) {
	var files []Hostfile
	matches, err := zglob.Glob(filepath.Join(root, pattern))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	for _, p := range matches {
		finfo, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if finfo.IsDir() {
			continue
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		files = append(files, Hostfile{
			Rel:          rel,
			Abs:          abs,
			Size:         finfo.Size(),
			LastModified: finfo.ModTime(),
		})
	}
	return files, nil
}
