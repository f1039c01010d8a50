// Package offline keeps a versioned copy of the static front-end assets in the
// durable cache store and serves requests from it before touching the disk.
package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/mini-rodalies-3d/ril100/internal/db"
)

// CacheID prefixes every asset cache name; the version is appended.
const CacheID = "swcache"

// ManifestFile is the build manifest listing generated assets.
const ManifestFile = "serviceworker-manifest.json"

// additionalFiles are cached on top of the manifest entries. "" is the index page.
var additionalFiles = []string{
	"",
	"manifest.json",
	"favicon.svg",
	"favicon-black.svg",
	"favicon-512x512.png",
}

// AssetStore is the subset of the durable cache store the shell needs.
type AssetStore interface {
	GetSnapshot(ctx context.Context, cacheName, key string) (*db.Snapshot, error)
	PutSnapshot(ctx context.Context, s db.Snapshot) error
	CacheNames(ctx context.Context) ([]string, error)
	DeleteCache(ctx context.Context, cacheName string) (int64, error)
}

// manifestEntry is one chunk of a Vite build manifest.
type manifestEntry struct {
	File string   `json:"file"`
	CSS  []string `json:"css"`
	Src  string   `json:"src"`
}

// Shell installs, activates and serves one version of the asset cache.
type Shell struct {
	store   AssetStore
	assets  fs.FS
	version int
}

// NewShell creates a shell for the assets in fsys.
func NewShell(store AssetStore, fsys fs.FS, version int) *Shell {
	return &Shell{store: store, assets: fsys, version: version}
}

// CacheName is the name of the cache this shell writes to.
func (s *Shell) CacheName() string {
	return CacheID + "-" + strconv.Itoa(s.version)
}

// Install copies every listed asset into the current cache. Nothing is stored
// unless every file could be read.
func (s *Shell) Install(ctx context.Context) (int, error) {
	files, err := s.assetList()
	if err != nil {
		return 0, err
	}

	snapshots := make([]db.Snapshot, 0, len(files))
	for _, file := range files {
		name := file
		if name == "" {
			name = "index.html"
		}

		body, err := fs.ReadFile(s.assets, name)
		if err != nil {
			return 0, fmt.Errorf("failed to read asset %s: %w", name, err)
		}
		snapshots = append(snapshots, db.NewSnapshot(s.CacheName(), "/"+file, http.StatusOK, contentType(name), body))
	}

	for _, snapshot := range snapshots {
		if err := s.store.PutSnapshot(ctx, snapshot); err != nil {
			return 0, fmt.Errorf("failed to cache asset %s: %w", snapshot.Key, err)
		}
	}

	slog.Info("asset cache installed", "cache", s.CacheName(), "assets", len(snapshots))
	return len(snapshots), nil
}

// assetList returns the manifest's files, stylesheets and HTML sources followed
// by the fixed additional files, without duplicates, in first-seen order.
func (s *Shell) assetList() ([]string, error) {
	data, err := fs.ReadFile(s.assets, ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ManifestFile, err)
	}

	var manifest map[string]manifestEntry
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}

	// Sorted so installs are deterministic.
	keys := make([]string, 0, len(manifest))
	for k := range manifest {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var files []string
	for _, k := range keys {
		entry := manifest[k]
		if entry.File != "" {
			files = append(files, entry.File)
		}
		files = append(files, entry.CSS...)
		if strings.HasSuffix(entry.Src, ".html") {
			files = append(files, entry.Src)
		}
	}
	files = append(files, additionalFiles...)

	seen := make(map[string]bool, len(files))
	unique := files[:0]
	for _, f := range files {
		f = strings.TrimPrefix(f, "/")
		if seen[f] {
			continue
		}
		seen[f] = true
		unique = append(unique, f)
	}
	return unique, nil
}

// Activate deletes asset caches left by other versions and returns how many were removed.
func (s *Shell) Activate(ctx context.Context) (int, error) {
	names, err := s.store.CacheNames(ctx)
	if err != nil {
		return 0, err
	}

	current := s.CacheName()
	deleted := 0
	for _, name := range names {
		if !strings.HasPrefix(name, CacheID) || name == current {
			continue
		}
		if _, err := s.store.DeleteCache(ctx, name); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// Handler serves GET and HEAD requests from the current cache and passes
// everything else, including cache misses, to next.
func (s *Shell) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		key := path.Clean("/" + r.URL.Path)
		snapshot, err := s.store.GetSnapshot(r.Context(), s.CacheName(), key)
		if err != nil {
			slog.Warn("asset cache lookup failed", "path", key, "error", err)
		}
		if err != nil || snapshot == nil {
			next.ServeHTTP(w, r)
			return
		}

		if snapshot.ContentType != "" {
			w.Header().Set("Content-Type", snapshot.ContentType)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(snapshot.Body)))
		w.WriteHeader(snapshot.StatusCode)
		if r.Method == http.MethodGet {
			w.Write(snapshot.Body)
		}
	})
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
