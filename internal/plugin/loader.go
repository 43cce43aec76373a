package plugin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rana718/sqlir/internal/config"
	"github.com/Rana718/sqlir/internal/utils"
)

// Origin says where a generator came from.
type Origin string

const (
	OriginLocal   Origin = "local"
	OriginCache   Origin = "cache"
	OriginNetwork Origin = "network"
	OriginBuiltin Origin = "builtin"
)

// Artifact is a located generator. Wasm is empty for the built-in one.
type Artifact struct {
	Source string
	Origin Origin
	Wasm   []byte
}

// Loader finds generator bytes. Rules, first match wins:
//
//	local path                -> read it
//	URL with sha256           -> cache hit, else fetch, verify and cache
//	URL without sha256        -> fetch and warn, never cached
//	nothing configured        -> built-in generator
type Loader struct {
	CacheDir     string
	DisableCache bool
	// BaseDir anchors relative local paths.
	BaseDir string
	Client  *http.Client
	Printer *utils.Printer
}

func NewLoader(cfg *config.Config, printer *utils.Printer) *Loader {
	return &Loader{
		CacheDir:     cfg.PluginCacheDir(),
		DisableCache: cfg.DisableCache,
		BaseDir:      cfg.Dir(),
		Client:       http.DefaultClient,
		Printer:      printer,
	}
}

func (l *Loader) Load(ctx context.Context, plugin config.Plugin) (*Artifact, error) {
	switch {
	case plugin.URL == "":
		return &Artifact{Source: "builtin", Origin: OriginBuiltin}, nil
	case isRemote(plugin.URL):
		if plugin.SHA256 == "" {
			return l.loadUnpinned(ctx, plugin.URL)
		}
		return l.loadPinned(ctx, plugin)
	default:
		return l.loadLocal(plugin)
	}
}

func (l *Loader) loadLocal(plugin config.Plugin) (*Artifact, error) {
	path := plugin.URL
	if !filepath.IsAbs(path) && l.BaseDir != "" {
		path = filepath.Join(l.BaseDir, path)
	}
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read generator: %w", err)
	}
	if plugin.SHA256 != "" {
		if err := verify(path, wasm, plugin.SHA256); err != nil {
			return nil, err
		}
	}
	return &Artifact{Source: path, Origin: OriginLocal, Wasm: wasm}, nil
}

func (l *Loader) loadPinned(ctx context.Context, plugin config.Plugin) (*Artifact, error) {
	cachePath := l.cachePath(plugin.SHA256)

	if !l.DisableCache {
		if wasm, err := os.ReadFile(cachePath); err == nil {
			if verify(cachePath, wasm, plugin.SHA256) == nil {
				return &Artifact{Source: plugin.URL, Origin: OriginCache, Wasm: wasm}, nil
			}
			l.Printer.Warn("discarding corrupt cache entry %s", cachePath)
			os.Remove(cachePath)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read generator cache: %w", err)
		}
	}

	wasm, err := l.fetch(ctx, plugin.URL)
	if err != nil {
		return nil, err
	}
	if err := verify(plugin.URL, wasm, plugin.SHA256); err != nil {
		return nil, err
	}

	if !l.DisableCache {
		if err := writeAtomic(cachePath, wasm); err != nil {
			l.Printer.Warn("failed to cache generator: %v", err)
		}
	}
	return &Artifact{Source: plugin.URL, Origin: OriginNetwork, Wasm: wasm}, nil
}

func (l *Loader) loadUnpinned(ctx context.Context, url string) (*Artifact, error) {
	wasm, err := l.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	l.Printer.Warn("generator %s has no sha256; it is not verified and will be downloaded on every build", url)
	return &Artifact{Source: url, Origin: OriginNetwork, Wasm: wasm}, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	l.Printer.Info("Downloading generator from %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download generator: %w", err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator download failed with status: %s (code: %d)", resp.Status, resp.StatusCode)
	}

	wasm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(wasm) == 0 {
		return nil, fmt.Errorf("downloaded generator from %s is empty", url)
	}
	return wasm, nil
}

func (l *Loader) cachePath(sum string) string {
	return filepath.Join(l.CacheDir, strings.ToLower(sum)+".wasm")
}

// verify compares digests case-insensitively.
func verify(source string, wasm []byte, expected string) error {
	actual := Checksum(wasm)
	if actual != strings.ToLower(expected) {
		return &ChecksumMismatchError{Source: source, Expected: expected, Actual: actual}
	}
	return nil
}

// Checksum is the lowercase hex SHA-256 of b.
func Checksum(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
