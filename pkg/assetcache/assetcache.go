package assetcache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/loopin/signage-agent/internal/utils"
)

// prefetchWorkers bounds how many asset downloads run at once during a
// playlist pre-fetch batch.
const prefetchWorkers = 4

// AssetCache is a content-addressed-by-URL store of downloaded media
// binaries. Entries are created lazily on first reference and never
// evicted; a cached asset keeps a previously synced device playing with no
// connectivity at all.
type AssetCache struct {
	dir      string
	client   *http.Client
	logger   zerolog.Logger
	inflight cmap.ConcurrentMap[string, chan struct{}]
}

// NewAssetCache creates the cache directory if needed and returns a ready
// cache.
func NewAssetCache(dir string, fetchTimeout time.Duration, logger zerolog.Logger) (*AssetCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	return &AssetCache{
		dir:      dir,
		client:   &http.Client{Timeout: fetchTimeout},
		logger:   logger,
		inflight: cmap.New[chan struct{}](),
	}, nil
}

// entryPath derives the on-disk path for a URL. The key is the SHA-256 of
// the exact URL string; the original extension is kept so the display layer
// can tell videos from images by suffix.
func (c *AssetCache) entryPath(assetURL string) string {
	sum := sha256.Sum256([]byte(assetURL))
	ext := ""
	if u, err := url.Parse(assetURL); err == nil {
		ext = strings.ToLower(filepath.Ext(u.Path))
	}
	return filepath.Join(c.dir, fmt.Sprintf("%x%s", sum, ext))
}

// IsCached reports whether the URL already has a local entry.
func (c *AssetCache) IsCached(assetURL string) bool {
	_, err := os.Stat(c.entryPath(assetURL))
	return err == nil
}

// Resolve returns a local path for the URL when cached, or the original
// remote URL unchanged when not. Resolve never touches the network, so
// playback degrades gracefully instead of stalling behind a fetch.
func (c *AssetCache) Resolve(assetURL string) string {
	if assetURL == "" {
		return ""
	}
	if c.IsCached(assetURL) {
		return c.entryPath(assetURL)
	}
	return assetURL
}

// EnsureCached downloads and stores the URL's content if it is not already
// present, returning the local path. Concurrent calls for the same URL
// share one download; the losers wait for the winner and re-check the
// store.
func (c *AssetCache) EnsureCached(ctx context.Context, assetURL string) (string, error) {
	path := c.entryPath(assetURL)
	if c.IsCached(assetURL) {
		return path, nil
	}

	done := make(chan struct{})
	if !c.inflight.SetIfAbsent(assetURL, done) {
		// Another caller is already fetching this URL.
		if existing, ok := c.inflight.Get(assetURL); ok {
			select {
			case <-existing:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		if c.IsCached(assetURL) {
			return path, nil
		}
		return "", fmt.Errorf("concurrent fetch of %s failed", assetURL)
	}

	defer func() {
		c.inflight.Remove(assetURL)
		close(done)
	}()

	if err := c.download(ctx, assetURL, path); err != nil {
		return "", err
	}

	c.logger.Debug().Str("url", assetURL).Str("path", path).Msg("Asset cached")
	return path, nil
}

// download streams the URL body to a temp file and renames it into place,
// so a partially written entry is never visible to readers.
func (c *AssetCache) download(ctx context.Context, assetURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", assetURL, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", assetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: status %d", assetURL, resp.StatusCode)
	}

	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create cache entry: %w", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to write cache entry for %s: %w", assetURL, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, path)
}

// Prefetch ensures every URL in the batch is cached, fetching in parallel.
// Individual failures are logged and skipped; one bad asset must not block
// the rest of a playlist from going live.
func (c *AssetCache) Prefetch(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}

	pool := utils.NewWorkerPool(prefetchWorkers)
	for _, u := range urls {
		assetURL := u
		pool.Submit(func() {
			if _, err := c.EnsureCached(ctx, assetURL); err != nil {
				c.logger.Warn().Err(err).Str("url", assetURL).Msg("Asset prefetch failed")
			}
		})
	}
	pool.Shutdown()
}
