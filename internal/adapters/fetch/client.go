// Package fetch downloads repository listings and archives, and publishes repositories.
// Addresses are either http(s) URLs or local directories.
package fetch

import (
	"bytes"
	"context"
	"io"
	"maps"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	ganyfs "go.trai.ch/gany/internal/adapters/fs"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
)

// maxDownload bounds a single listing or archive.
const maxDownload = 1 << 30

var (
	_ ports.Fetcher   = (*Client)(nil)
	_ ports.Publisher = (*Client)(nil)
)

// Client implements ports.Fetcher and ports.Publisher.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a Client whose HTTP requests time out after timeout.
func NewClient(timeout time.Duration) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: timeout})
}

// NewClientWithHTTP creates a Client using c for remote addresses.
func NewClientWithHTTP(c *http.Client) *Client {
	return &Client{httpClient: c}
}

// FetchListing downloads <address>/index.cbor.
func (c *Client) FetchListing(ctx context.Context, address string) ([]byte, error) {
	return c.get(ctx, address, domain.IndexFileName)
}

// FetchArchive downloads <address>/<name>-<version>.gany.
func (c *Client) FetchArchive(ctx context.Context, address string, pkg *domain.Package) ([]byte, error) {
	data, err := c.get(ctx, address, domain.ArchiveFileName(pkg.Name, pkg.Version))
	if err != nil {
		return nil, zerr.With(err, "package", pkg.ID())
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, address, name string) ([]byte, error) {
	u, err := domain.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "file" {
		return readLocal(filepath.Join(filepath.FromSlash(u.Path), name))
	}
	return c.download(ctx, join(u, name))
}

func readLocal(p string) ([]byte, error) {
	data, err := os.ReadFile(p) //nolint:gosec // path is built from a configured repository address
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrFetchFailed, err.Error()), "path", p)
	}
	return data, nil
}

func (c *Client) download(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrFetchFailed, err.Error()), "url", target)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrFetchFailed, err.Error()), "url", target)
	}
	defer resp.Body.Close() //nolint:errcheck // read only

	if resp.StatusCode != http.StatusOK {
		statusErr := zerr.With(zerr.Wrap(domain.ErrFetchFailed, "unexpected status "+resp.Status), "url", target)
		return nil, zerr.With(statusErr, "status_code", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload+1))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrFetchFailed, err.Error()), "url", target)
	}
	if len(body) > maxDownload {
		return nil, zerr.With(zerr.Wrap(domain.ErrFetchFailed, "response too large"), "url", target)
	}
	return body, nil
}

// Publish uploads every file of pub, then the listing, so that a reader never sees
// a listing that names missing archives.
func (c *Client) Publish(ctx context.Context, address string, pub ports.Publication) error {
	u, err := domain.ParseAddress(address)
	if err != nil {
		return err
	}

	names := slices.Sorted(maps.Keys(pub.Files))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.put(ctx, u, name, pub.Files[name]); err != nil {
			return err
		}
	}
	return c.put(ctx, u, domain.IndexFileName, pub.Listing)
}

func (c *Client) put(ctx context.Context, u *url.URL, name string, data []byte) error {
	if name != path.Base(name) {
		return zerr.With(zerr.Wrap(domain.ErrInvalidAddress, "published file names must be flat"), "file", name)
	}

	if u.Scheme == "file" {
		return ganyfs.WriteFileAtomic(filepath.Join(filepath.FromSlash(u.Path), name), data, domain.FilePerm)
	}

	target := join(u, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(data))
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to build upload request"), "url", target)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "upload failed"), "url", target)
	}
	defer resp.Body.Close() //nolint:errcheck // body is drained below
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zerr.With(zerr.With(zerr.New("upload rejected"), "url", target), "status_code", resp.StatusCode)
	}
	return nil
}

func join(u *url.URL, name string) string {
	return u.JoinPath(name).String()
}
