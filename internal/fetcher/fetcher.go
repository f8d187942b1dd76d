// Package fetcher downloads and parses crime datasets from file, HTTP, and
// FTP sources in CSV or XLSX form.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Fetcher defines the interface for retrieving remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Open returns a reader for a dataset source, which may be a local path or
// an http(s)/ftp URL. The caller must close the returned reader.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	u, err := url.Parse(source)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return NewHTTPFetcher(HTTPOptions{}).Download(ctx, source)
		case "ftp":
			return NewFTPFetcher(FTPOptions{}).Download(ctx, source)
		}
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", source)
	}
	return f, nil
}

// IsXLSX reports whether the source looks like an XLSX workbook by extension.
func IsXLSX(source string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSuffix(source, "/")), ".xlsx")
}

// Localize ensures the source is available as a local file, downloading
// remote sources into dir. XLSX parsing needs random access, so remote
// workbooks are always materialized.
func Localize(ctx context.Context, source, dir string) (string, error) {
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "ftp") {
		return source, nil
	}

	local := dir + "/dataset-" + time.Now().UTC().Format("20060102T150405") + ".xlsx"
	var f Fetcher
	if u.Scheme == "ftp" {
		f = NewFTPFetcher(FTPOptions{})
	} else {
		f = NewHTTPFetcher(HTTPOptions{})
	}
	if _, err := f.DownloadToFile(ctx, source, local); err != nil {
		return "", err
	}
	return local, nil
}
