// Package images downloads note images into scoped temporary files
package images

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	perr "noterelay/internal/platform/errors"
	"noterelay/internal/platform/logger"
)

const (
	defaultTimeout = 30 * time.Second

	// DefaultLimit is the platform maximum of images per note
	DefaultLimit = 9
)

// allowed extensions; anything else falls back to .jpg
var knownExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// Asset is one downloaded image owned by the caller until released
type Asset struct {
	URL  string
	Path string
	Ext  string
}

// Options configures an Acquirer
type Options struct {
	// Timeout per download
	Timeout time.Duration

	// Limit caps how many URLs are attempted
	Limit int

	// Dir is where temp files land, empty means the OS temp dir
	Dir string
}

// Acquirer downloads images for a single publish attempt and records
// every file it creates so cleanup can never miss one
type Acquirer struct {
	http    *http.Client
	opts    Options
	log     logger.Logger
	created []string
}

// New builds an Acquirer for one attempt
func New(o Options) *Acquirer {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Dir == "" {
		o.Dir = os.TempDir()
	}
	return &Acquirer{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("images"),
	}
}

// Acquire downloads up to the configured limit of urls, in order
// a failed download is logged and skipped, never aborting the batch;
// the returned assets keep the original relative order
func (a *Acquirer) Acquire(ctx context.Context, urls []string) []Asset {
	if len(urls) > a.opts.Limit {
		a.log.Warn().Int("given", len(urls)).Int("limit", a.opts.Limit).Msg("image list truncated")
		urls = urls[:a.opts.Limit]
	}

	assets := make([]Asset, 0, len(urls))
	for i, u := range urls {
		asset, err := a.fetch(ctx, u)
		if err != nil {
			a.log.Warn().Err(err).Int("index", i).Str("url", u).Msg("image download failed, skipping")
			continue
		}
		a.log.Info().Int("index", i).Str("path", asset.Path).Msg("image downloaded")
		assets = append(assets, asset)
	}
	return assets
}

func (a *Acquirer) fetch(ctx context.Context, rawURL string) (Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Asset{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "bad image url")
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return Asset{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "image fetch failed")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Asset{}, perr.Newf(perr.ErrorCodeUnavailable, "image fetch status %d", resp.StatusCode)
	}

	ext := ExtFor(rawURL)
	dst := filepath.Join(a.opts.Dir, "note-img-"+uuid.NewString()+ext)
	f, err := os.Create(dst)
	if err != nil {
		return Asset{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "temp file create failed")
	}
	// record before writing so a partial file is still released
	a.created = append(a.created, dst)

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return Asset{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "image write failed")
	}
	if err := f.Close(); err != nil {
		return Asset{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "temp file close failed")
	}
	return Asset{URL: rawURL, Path: dst, Ext: ext}, nil
}

// Release deletes every file this acquirer created. Idempotent, and a
// deletion failure is logged without surfacing, so cleanup can never
// mask the attempt's real outcome
func (a *Acquirer) Release() {
	for _, p := range a.created {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			a.log.Warn().Err(err).Str("path", p).Msg("temp file cleanup failed")
			continue
		}
		a.log.Debug().Str("path", p).Msg("temp file released")
	}
	a.created = nil
}

// Created returns the paths this acquirer has written so far
func (a *Acquirer) Created() []string { return a.created }

// ExtFor derives a file extension from the URL path suffix
// unknown or missing suffixes default to .jpg; this is a heuristic, not
// content sniffing
func ExtFor(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if !knownExts[ext] {
		return ".jpg"
	}
	return ext
}
