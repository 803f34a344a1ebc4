package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// PartSuffix marks an in-flight download next to its final name.
const PartSuffix = ".part"

// File is a finished recording waiting in the staging directory.
type File struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// PartPath returns the temporary sibling used while downloading finalPath.
func PartPath(finalPath string) string {
	return finalPath + PartSuffix
}

// IsPartial reports whether name is an in-flight download.
func IsPartial(name string) bool {
	return strings.HasSuffix(name, PartSuffix)
}

// List returns the regular files directly under dir, excluding partial
// downloads, sorted by name. A missing directory yields an empty list.
func List(dir string) ([]File, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read staging directory: %w", err)
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if IsPartial(name) {
			continue
		}
		fullPath := filepath.Join(dir, name)
		info, err := os.Stat(fullPath)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, File{
			Name:    name,
			Path:    fullPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Summary reports the number and total size of staged files.
func Summary(dir string) (count int, bytes int64, err error) {
	files, err := List(dir)
	if err != nil {
		return 0, 0, err
	}
	for _, f := range files {
		bytes += f.Size
	}
	return len(files), bytes, nil
}
