package flows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CachedProfile memoises the hourly profile of a slow source (a large CSV file) on disk.
// Cache entries are keyed by the inner source's CacheKey, so editing the file invalidates them.
type CachedProfile struct {
	Inner    ProfileSource
	CacheDir string
	TTL      time.Duration
}

type profileCacheFile struct {
	Key       string        `json:"key"`
	CreatedAt string        `json:"created_at"`
	Profile   HourlyProfile `json:"profile"`
}

func (c *CachedProfile) CacheKey() (string, error) {
	if c.Inner == nil {
		return "", fmt.Errorf("cached profile inner source is nil")
	}
	return c.Inner.CacheKey()
}

func (c *CachedProfile) HourlyProfile(ctx context.Context) (HourlyProfile, error) {
	if c.Inner == nil {
		return nil, fmt.Errorf("cached profile inner source is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.TTL <= 0 || c.CacheDir == "" {
		return c.Inner.HourlyProfile(ctx)
	}

	key, err := c.Inner.CacheKey()
	if err != nil {
		return nil, err
	}
	cachePath := c.cachePath(key)
	if profile, ok := c.readCache(ctx, cachePath, key); ok {
		return profile, nil
	}

	profile, err := c.Inner.HourlyProfile(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.writeCache(ctx, cachePath, key, profile)
	return profile, nil
}

func (c *CachedProfile) cachePath(key string) string {
	sum := sha256.Sum256([]byte(key))
	prefix := key
	if i := strings.IndexByte(prefix, '|'); i >= 0 {
		prefix = filepath.Base(prefix[:i])
	}
	file := fmt.Sprintf("profile_%s_%s.json", sanitizeCacheToken(prefix), hex.EncodeToString(sum[:8]))
	return filepath.Join(c.CacheDir, file)
}

func (c *CachedProfile) readCache(ctx context.Context, path string, key string) (HourlyProfile, bool) {
	if err := ctx.Err(); err != nil {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var cached profileCacheFile
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	if cached.Key != key {
		return nil, false
	}
	createdAt, err := time.Parse(time.RFC3339, cached.CreatedAt)
	if err != nil {
		return nil, false
	}
	if time.Since(createdAt.UTC()) >= c.TTL {
		return nil, false
	}
	return cached.Profile, true
}

func (c *CachedProfile) writeCache(ctx context.Context, path string, key string, profile HourlyProfile) {
	if err := ctx.Err(); err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}

	payload := profileCacheFile{
		Key:       key,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Profile:   profile,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return
	}
	if err := tmp.Sync(); err != nil {
		return
	}
	if err := tmp.Close(); err != nil {
		return
	}
	if err := ctx.Err(); err != nil {
		return
	}

	_ = os.Rename(tmpPath, path)
}

func sanitizeCacheToken(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}

	var b strings.Builder
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
