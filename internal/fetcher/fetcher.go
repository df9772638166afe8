// Package fetcher downloads boundary datasets over HTTP(S) or FTP and
// unpacks zipped shapefiles.
package fetcher

import (
	"context"
	"io"
	"net/url"

	"github.com/rotisserie/eris"
)

// Fetcher downloads a remote resource.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path and returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Router dispatches to the HTTP or FTP fetcher by URL scheme.
type Router struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewRouter creates a Router with default HTTP and FTP fetchers.
func NewRouter(userAgent string) *Router {
	return &Router{
		HTTP: NewHTTPFetcher(HTTPOptions{UserAgent: userAgent}),
		FTP:  NewFTPFetcher(FTPOptions{}),
	}
}

func (r *Router) pick(rawURL string) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse url")
	}
	switch u.Scheme {
	case "http", "https":
		return r.HTTP, nil
	case "ftp":
		return r.FTP, nil
	}
	return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
}

func (r *Router) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	f, err := r.pick(rawURL)
	if err != nil {
		return nil, err
	}
	return f.Download(ctx, rawURL)
}

func (r *Router) DownloadToFile(ctx context.Context, rawURL, path string) (int64, error) {
	f, err := r.pick(rawURL)
	if err != nil {
		return 0, err
	}
	return f.DownloadToFile(ctx, rawURL, path)
}
