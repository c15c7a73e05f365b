/*
Package asset caches remote files on local disk.

An asset is downloaded once into the cache directory and reused by every
following Fetch:

	c := asset.NewCache("~/.cache/sao")
	path, err := c.SoundFont(ctx)

Downloads are written into a temporary file next to the target and
renamed into place only when complete, so an interrupted download never
leaves a truncated asset behind. An optional blake2b-256 checksum is
verified before the rename.
*/
package asset

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/xid"
	"golang.org/x/crypto/blake2b"

	"github.com/Ocrabit/sao-guidance/log"
	"github.com/Ocrabit/sao-guidance/metric"
)

// Well-known assets.
const (
	// SoundFontURL is a free General MIDI SoundFont used for rendering.
	SoundFontURL = "https://github.com/musescore/MuseScore/raw/refs/heads/2.1/share/sound/FluidR3Mono_GM.sf3"
	// SoundFontName is where SoundFontURL is cached.
	SoundFontName = "soundfonts/FluidR3Mono_GM.sf3"
	// AudioDir is the cache subdirectory for downloaded audio.
	AudioDir = "data/audio"
)

// Asset describes a remote file.
type Asset struct {
	URL string
	// Name is a slash-separated path relative to cache directory. Base
	// name of URL path is used when empty.
	Name string
	// Sum is an optional hex encoded blake2b-256 checksum.
	Sum string
}

// ChecksumError is returned when downloaded content doesn't match the
// expected checksum.
type ChecksumError struct {
	URL      string
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.URL, e.Expected, e.Actual)
}

// StatusError is returned when server responds with non-2xx status.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download %s: %s", e.URL, e.Status)
}

// ErrInvalidName is returned when asset name can't be resolved into a
// path inside of cache directory.
var ErrInvalidName = errors.New("invalid asset name")

// Cache is a directory of downloaded assets.
type Cache struct {
	dir    string
	client *http.Client
	log    log.Logger
	meter  metric.StartFunc
}

// Option provides a way to set functional parameters to cache.
type Option func(c *Cache)

// WithClient sets http client used for downloads.
func WithClient(client *http.Client) Option {
	return func(c *Cache) {
		c.client = client
	}
}

// WithLogger sets logger to cache.
func WithLogger(logger log.Logger) Option {
	return func(c *Cache) {
		c.log = logger
	}
}

// NewCache creates a cache rooted at dir. Directory is created lazily.
func NewCache(dir string, options ...Option) *Cache {
	c := &Cache{
		dir:    dir,
		client: http.DefaultClient,
		log:    log.GetLogger(),
	}
	for _, option := range options {
		option(c)
	}
	c.meter = metric.Meter(c)
	return c
}

// Dir returns cache root directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the local path of asset without downloading it.
func (c *Cache) Path(a Asset) (string, error) {
	name := a.Name
	if name == "" {
		u, err := url.Parse(a.URL)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidName, err)
		}
		name = path.Base(u.Path)
	}
	name = path.Clean("/" + name)[1:]
	if name == "" || name == "." {
		return "", ErrInvalidName
	}
	return filepath.Join(c.dir, filepath.FromSlash(name)), nil
}

// Fetch returns the local path of asset. The asset is downloaded only if
// it's not cached yet.
func (c *Cache) Fetch(ctx context.Context, a Asset) (string, error) {
	p, err := c.Path(a)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err == nil {
		c.log.Infof("Using cached file: %s", p)
		return p, nil
	} else if !os.IsNotExist(err) {
		return "", err
	}

	c.log.Infof("Downloading %s...", filepath.Base(p))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", err
	}
	measure := c.meter()
	n, err := c.download(ctx, a, p)
	measure(n, err)
	if err != nil {
		return "", err
	}
	c.log.Infof("Saved to %s", p)
	return p, nil
}

// SoundFont returns the path of the default SoundFont.
func (c *Cache) SoundFont(ctx context.Context) (string, error) {
	return c.Fetch(ctx, Asset{URL: SoundFontURL, Name: SoundFontName})
}

// GitHubAudio caches an audio file under AudioDir. Base name of url is
// used when filename is empty.
func (c *Cache) GitHubAudio(ctx context.Context, rawURL, filename string) (string, error) {
	if filename == "" {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidName, err)
		}
		filename = path.Base(u.Path)
	}
	return c.Fetch(ctx, Asset{URL: rawURL, Name: path.Join(AudioDir, filename)})
}

// download writes the asset into a temporary file and moves it to target.
func (c *Cache) download(ctx context.Context, a Asset, target string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &StatusError{URL: a.URL, Status: resp.Status, Code: resp.StatusCode}
	}

	tmp := target + "." + xid.New().String() + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp)

	h, err := blake2b.New256(nil)
	if err != nil {
		f.Close()
		return 0, err
	}
	n, err := io.Copy(io.MultiWriter(f, h), resp.Body)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("download %s: %w", a.URL, err)
	}
	if err := f.Close(); err != nil {
		return n, err
	}
	if a.Sum != "" {
		if actual := hex.EncodeToString(h.Sum(nil)); actual != a.Sum {
			return n, &ChecksumError{URL: a.URL, Expected: a.Sum, Actual: actual}
		}
	}
	return n, os.Rename(tmp, target)
}

// Sum returns hex encoded blake2b-256 checksum of data.
func Sum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
