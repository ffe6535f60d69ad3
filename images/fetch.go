package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io"
	"net/http"
	"net/url"
	"time"

	_ "github.com/chai2010/webp" // register WebP
	"github.com/pkg/errors"

	"github.com/nvr-ai/detect-demo/common"
)

const (
	// DefaultFetchTimeout bounds a single fetch end to end.
	DefaultFetchTimeout = 15 * time.Second
	// DefaultMaxBytes caps the size of a fetched body.
	DefaultMaxBytes int64 = 32 << 20
	// DefaultMaxPixels caps the declared width x height of a fetched image.
	DefaultMaxPixels int64 = 40_000_000
)

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	// Timeout bounds connect, headers and body read.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	// MaxBytes caps the body size; larger bodies fail to decode.
	MaxBytes int64 `json:"maxBytes" yaml:"maxBytes"`
	// MaxPixels caps the declared image area; larger images fail to decode.
	MaxPixels int64 `json:"maxPixels" yaml:"maxPixels"`
	// UserAgent is sent with each request when set.
	UserAgent string `json:"userAgent" yaml:"userAgent"`
}

// Fetcher retrieves images over HTTP. It never caches: every call re-fetches.
type Fetcher struct {
	client  *http.Client
	options FetcherOptions
}

// NewFetcher creates a fetcher. A nil client gets a fresh one with the configured timeout.
//
// Arguments:
//   - client: The HTTP client to use, or nil.
//   - options: The fetch options. Zero values take the package defaults.
//
// Returns:
//   - *Fetcher: The fetcher.
func NewFetcher(client *http.Client, options FetcherOptions) *Fetcher {
	if options.Timeout <= 0 {
		options.Timeout = DefaultFetchTimeout
	}
	if options.MaxBytes <= 0 {
		options.MaxBytes = DefaultMaxBytes
	}
	if options.MaxPixels <= 0 {
		options.MaxPixels = DefaultMaxPixels
	}
	if client == nil {
		client = &http.Client{Timeout: options.Timeout}
	}
	return &Fetcher{client: client, options: options}
}

// ValidateURL checks raw is an absolute http or https URL with a host.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parse url %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.Errorf("url %q has no host", raw)
	}
	return u, nil
}

// Open performs the GET and returns the body of a 2xx response.
//
// All failures are classified as network errors. The caller closes the body.
func (f *Fetcher) Open(ctx context.Context, raw string) (io.ReadCloser, error) {
	u, err := ValidateURL(raw)
	if err != nil {
		return nil, common.NetworkError("fetch", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.options.Timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		cancel()
		return nil, common.NetworkError("fetch", err)
	}
	if f.options.UserAgent != "" {
		req.Header.Set("User-Agent", f.options.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		return nil, common.NetworkError("fetch", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		cancel()
		return nil, common.NetworkError("fetch", fmt.Errorf("GET %s: status %d", u.Redacted(), resp.StatusCode))
	}

	return &body{ReadCloser: resp.Body, cancel: cancel}, nil
}

// Fetch retrieves raw and decodes it as an image.
//
// Arguments:
//   - ctx: Request context.
//   - raw: An absolute http or https URL.
//
// Returns:
//   - Image: The decoded RGB image.
//   - error: A NetworkError for transport failures, a DecodeError for undecodable bodies.
func (f *Fetcher) Fetch(ctx context.Context, raw string) (Image, error) {
	rc, err := f.Open(ctx, raw)
	if err != nil {
		return Image{}, err
	}
	defer rc.Close()

	// One extra byte distinguishes "exactly MaxBytes" from "too large".
	data, err := io.ReadAll(io.LimitReader(rc, f.options.MaxBytes+1))
	if err != nil {
		return Image{}, common.NetworkError("fetch", errors.Wrap(err, "read image body"))
	}
	if int64(len(data)) > f.options.MaxBytes {
		return Image{}, common.DecodeError("decode", errors.Errorf("body exceeds %d bytes", f.options.MaxBytes))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, common.DecodeError("decode", errors.Wrap(err, "decode image header"))
	}
	if int64(cfg.Width)*int64(cfg.Height) > f.options.MaxPixels {
		return Image{}, common.DecodeError("decode",
			errors.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, f.options.MaxPixels))
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, common.DecodeError("decode", errors.Wrap(err, "decode image body"))
	}

	return FromStd(src, ImageFormat(format)), nil
}

type body struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *body) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}
