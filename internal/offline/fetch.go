package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// Fetcher retrieves an asset during install.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Entry, error)
}

// HTTPFetcher fetches absolute URLs over the network.
type HTTPFetcher struct {
	Client *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("create request: %w", err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Entry{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return Entry{URL: rawURL, Status: resp.StatusCode, Header: resp.Header.Clone(), Body: body}, nil
}

// FSFetcher serves site-relative URLs from a file system. "/" maps to
// index.html.
type FSFetcher struct {
	FS fs.FS
}

func (f FSFetcher) Fetch(_ context.Context, rawURL string) (Entry, error) {
	name := strings.TrimPrefix(path.Clean("/"+rawURL), "/")
	if name == "" {
		name = "index.html"
	}

	body, err := fs.ReadFile(f.FS, name)
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{URL: rawURL, Status: http.StatusNotFound}, nil
	}
	if err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", name, err)
	}

	header := http.Header{}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		header.Set("Content-Type", ct)
	}
	header.Set("Content-Length", strconv.Itoa(len(body)))
	return Entry{URL: rawURL, Status: http.StatusOK, Header: header, Body: body}, nil
}

// RouteFetcher sends site-relative URLs to Local and absolute URLs to Remote.
type RouteFetcher struct {
	Local  Fetcher
	Remote Fetcher
}

func (f RouteFetcher) Fetch(ctx context.Context, rawURL string) (Entry, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Entry{}, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	if u.IsAbs() {
		return f.Remote.Fetch(ctx, rawURL)
	}
	return f.Local.Fetch(ctx, rawURL)
}
