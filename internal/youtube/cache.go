package youtube

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	youtubeapi "google.golang.org/api/youtube/v3"
)

// DefaultCacheFile is the cache location used when no path is configured.
const DefaultCacheFile = "youtube-cache.json"

// Cache is a persistent mapping from video id to the video metadata the API
// last returned for it. It is loaded once at startup and flushed once at the
// end of the run; there is no locking because there is never more than one
// writer. The remote platform stays authoritative: losing a cache only costs
// a re-fetch.
type Cache struct {
	path   string
	videos map[string]*youtubeapi.Video
}

// cacheDocument is the on-disk shape: all entries under one top-level key.
type cacheDocument struct {
	Videos map[string]*youtubeapi.Video `json:"videos"`
}

// OpenCache loads the cache document at path. A missing file yields an empty
// cache; any other read or decode failure is an error.
func OpenCache(path string) (*Cache, error) {
	c := &Cache{
		path:   path,
		videos: make(map[string]*youtubeapi.Video),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var doc cacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}
	if doc.Videos != nil {
		c.videos = doc.Videos
	}

	return c, nil
}

// Get returns the cached entry for id, or nil when the id is unknown.
func (c *Cache) Get(id string) *youtubeapi.Video {
	return c.videos[id]
}

// Put writes an entry through to the cache, replacing any previous entry for
// the same id.
func (c *Cache) Put(video *youtubeapi.Video) {
	if video == nil || video.Id == "" {
		return
	}
	c.videos[video.Id] = video
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.videos)
}

// IDs returns the cached ids in no particular order.
func (c *Cache) IDs() []string {
	ids := make([]string, 0, len(c.videos))
	for id := range c.videos {
		ids = append(ids, id)
	}
	return ids
}

// Flush persists the cache to its file. An empty cache is not written, so a
// run that never learned anything leaves no file behind. The write goes
// through a temp file and a rename so a crash mid-write cannot corrupt the
// previous document.
func (c *Cache) Flush() error {
	if len(c.videos) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(cacheDocument{Videos: c.videos}, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}

	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	return nil
}
