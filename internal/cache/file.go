package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// File persists entries under dir, one json file per key, with a byte
// budget enforced by Shrink.
type File struct {
	dir   string
	limit int64
}

const DefaultFileLimit = 4 << 20

func NewFile(dir string, limit int64) *File {
	if limit <= 0 {
		limit = DefaultFileLimit
	}
	return &File{dir: dir, limit: limit}
}

func (c *File) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *File) Get(key string) ([]float64, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, false
	}
	// Touch for LRU shrinking.
	now := time.Now()
	_ = os.Chtimes(c.path(key), now, now)
	return values, true
}

func (c *File) Put(key string, values []float64) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return
	}
	data, err := json.Marshal(values)
	if err != nil {
		return
	}
	_ = os.WriteFile(c.path(key), data, 0644)
}

// Shrink deletes the oldest entries until the cache fits its byte
// budget.
func (c *File) Shrink() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	type fileInfo struct {
		path  string
		size  int64
		mtime time.Time
	}
	var files []fileInfo
	var total int64
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || e.IsDir() {
			continue
		}
		files = append(files, fileInfo{
			path:  filepath.Join(c.dir, e.Name()),
			size:  info.Size(),
			mtime: info.ModTime(),
		})
		total += info.Size()
	}

	sort.Slice(files, func(i, j int) bool { return files[i].mtime.Before(files[j].mtime) })

	for _, f := range files {
		if total <= c.limit {
			break
		}
		if err := os.Remove(f.path); err == nil {
			total -= f.size
		}
	}
	return nil
}
