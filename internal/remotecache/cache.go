// Package remotecache keeps a local, hash-keyed mirror of remote files so
// collaborators that need the current bytes of a remote file (thumbnail
// derivation, content import) avoid redundant network fetches. Staleness is
// detected by comparing the local copy's SHA-1 against the remote directory
// listing; nothing is proactively invalidated.
package remotecache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/mouseadmin/internal/errors"
	"git.home.luguber.info/inful/mouseadmin/internal/logfields"
	"git.home.luguber.info/inful/mouseadmin/internal/metrics"
	"git.home.luguber.info/inful/mouseadmin/internal/neocities"
)

const maxFetchBytes = 25 * 1024 * 1024

// Lister provides the remote directory listing.
type Lister interface {
	List(ctx context.Context) ([]neocities.FileInfo, error)
}

// Cache mirrors remote files under a local directory. It is not safe for
// concurrent use; two simultaneous publishes race last-writer-wins.
type Cache struct {
	dir        string
	siteURL    string
	lister     Lister
	httpClient *http.Client
	listTTL    time.Duration
	now        func() time.Time
	rec        metrics.Recorder

	listing  []neocities.FileInfo
	listedAt time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithHTTPClient overrides the HTTP client used for content fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) { c.httpClient = client }
}

// WithRecorder routes cache hit and miss counts to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(c *Cache) { c.rec = rec }
}

// New creates a cache rooted at dir. siteURL is the public root the remote
// files are served from; listTTL bounds how long one directory listing is
// reused.
func New(dir, siteURL string, lister Lister, listTTL time.Duration, opts ...Option) *Cache {
	c := &Cache{
		dir:        dir,
		siteURL:    strings.TrimSuffix(siteURL, "/"),
		lister:     lister,
		listTTL:    listTTL,
		now:        time.Now,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		rec:        metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Listing returns the remote directory listing, reusing the previous result
// while it is younger than the TTL. Many fields on one page need the listing
// at once; the TTL keeps that from hammering the endpoint.
func (c *Cache) Listing(ctx context.Context) ([]neocities.FileInfo, error) {
	if !c.listedAt.IsZero() && c.now().Sub(c.listedAt) < c.listTTL {
		return c.listing, nil
	}

	files, err := c.lister.List(ctx)
	if err != nil {
		return nil, errors.RemoteListFailed(err)
	}
	c.listing = files
	c.listedAt = c.now()
	return files, nil
}

// InvalidateListing drops the cached listing so the next call refetches.
func (c *Cache) InvalidateListing() {
	c.listing = nil
	c.listedAt = time.Time{}
}

// Fetch returns the current bytes of a remote file. A local copy whose SHA-1
// matches the listing hash is returned without a network call; otherwise the
// file is fetched, mirrored locally and returned. A path absent from the
// listing is a not-found error; transport failures propagate unretried.
func (c *Cache) Fetch(ctx context.Context, remotePath string) ([]byte, error) {
	remotePath = strings.TrimPrefix(remotePath, "/")

	listing, err := c.Listing(ctx)
	if err != nil {
		return nil, err
	}

	var info *neocities.FileInfo
	for i := range listing {
		if !listing[i].IsDirectory && listing[i].Path == remotePath {
			info = &listing[i]
			break
		}
	}
	if info == nil {
		return nil, errors.RemoteFileNotFound(remotePath)
	}

	localPath := filepath.Join(c.dir, filepath.FromSlash(remotePath))
	if cached, err := os.ReadFile(localPath); err == nil {
		if hashBytes(cached) == info.SHA1Hash {
			slog.Debug("remote cache hit", logfields.RemotePath(remotePath))
			c.rec.IncCacheHit()
			return cached, nil
		}
	}

	c.rec.IncCacheMiss()
	data, err := c.fetchDirect(ctx, c.siteURL+"/"+remotePath)
	if err != nil {
		return nil, err
	}

	if err := c.store(localPath, data); err != nil {
		// A broken local mirror only costs a refetch next time.
		slog.Warn("remote cache write failed", logfields.RemotePath(remotePath), logfields.Error(err))
	}
	return data, nil
}

// Store refreshes the local mirror for a path just published, so the next
// Fetch of unchanged content stays local.
func (c *Cache) Store(remotePath string, content []byte) error {
	remotePath = strings.TrimPrefix(remotePath, "/")
	return c.store(filepath.Join(c.dir, filepath.FromSlash(remotePath)), content)
}

// FetchURL implements fields.ContentFetcher. URLs under the site's own
// domain go through the hash-checked mirror; anything else is a direct,
// uncached fetch.
func (c *Cache) FetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	if rel, ok := strings.CutPrefix(rawURL, c.siteURL+"/"); ok {
		return c.Fetch(ctx, rel)
	}
	return c.fetchDirect(ctx, rawURL)
}

func (c *Cache) fetchDirect(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}

func (c *Cache) store(localPath string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(localPath, content, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

func hashBytes(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// HashContent exposes the listing hash algorithm (SHA-1, hex) so the publish
// pipeline can compare candidate files against listing entries.
func HashContent(data []byte) string {
	return hashBytes(data)
}
