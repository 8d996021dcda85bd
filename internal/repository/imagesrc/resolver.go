package imagesrc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp" // register decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder

	"github.com/kailas-cloud/factlens/internal/domain"
)

const (
	defaultFetchTimeout = 10 * time.Second
	defaultMaxBytes     = 20 << 20
	defaultMaxDimension = 1024
	jpegQuality         = 90
)

// Options tunes image resolution.
type Options struct {
	FetchTimeout time.Duration
	MaxBytes     int64
	// MaxDimension caps the longer side; larger images are downscaled.
	MaxDimension int
	HTTPClient   *http.Client
}

// Resolver loads an image from a URL or local path and normalizes it to opaque RGB JPEG.
type Resolver struct {
	client       *http.Client
	timeout      time.Duration
	maxBytes     int64
	maxDimension int
}

// New creates a Resolver with defaults for zero options.
func New(opts Options) *Resolver {
	r := &Resolver{
		client:       opts.HTTPClient,
		timeout:      opts.FetchTimeout,
		maxBytes:     opts.MaxBytes,
		maxDimension: opts.MaxDimension,
	}
	if r.client == nil {
		r.client = http.DefaultClient
	}
	if r.timeout <= 0 {
		r.timeout = defaultFetchTimeout
	}
	if r.maxBytes <= 0 {
		r.maxBytes = defaultMaxBytes
	}
	if r.maxDimension <= 0 {
		r.maxDimension = defaultMaxDimension
	}
	return r
}

// Resolve fetches http(s) locators with a bounded timeout and reads anything else from disk.
// Non-success HTTP statuses and missing files fail with domain.ErrImageUnavailable.
func (r *Resolver) Resolve(ctx context.Context, locator string) (domain.EncodedImage, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return domain.EncodedImage{}, fmt.Errorf("empty locator: %w", domain.ErrImageUnavailable)
	}

	var (
		raw []byte
		err error
	)
	if isRemote(locator) {
		raw, err = r.fetch(ctx, locator)
	} else {
		raw, err = r.readFile(locator)
	}
	if err != nil {
		return domain.EncodedImage{}, err
	}

	return r.normalize(raw)
}

func isRemote(locator string) bool {
	l := strings.ToLower(locator)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

func (r *Resolver) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d: %w", url, resp.StatusCode, domain.ErrImageUnavailable)
	}

	return r.readLimited(resp.Body)
}

func (r *Resolver) readFile(path string) ([]byte, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", path, domain.ErrImageUnavailable)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return r.readLimited(f)
}

func (r *Resolver) readLimited(src io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes: %w", r.maxBytes, domain.ErrImageUnavailable)
	}
	return data, nil
}

// normalize flattens palette and alpha images onto a white canvas so the encoder
// always sees three opaque channels.
func (r *Resolver) normalize(raw []byte) (domain.EncodedImage, error) {
	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return domain.EncodedImage{}, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := scaledSize(b.Dx(), b.Dy(), r.maxDimension)
	if w == 0 || h == 0 {
		return domain.EncodedImage{}, fmt.Errorf("decode %s image: empty bounds", format)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return domain.EncodedImage{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return domain.EncodedImage{
		MIMEType: "image/jpeg",
		Data:     buf.Bytes(),
		Width:    w,
		Height:   h,
	}, nil
}

func scaledSize(w, h, limit int) (int, int) {
	longer := max(w, h)
	if longer <= limit {
		return w, h
	}
	return max(1, w*limit/longer), max(1, h*limit/longer)
}
