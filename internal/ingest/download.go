package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gesetzbot/gesetzbot/internal/model"
)

// Downloader fetches law archives from the official portal and unpacks them.
// It honours robots.txt and caps the bytes read from the response.
type Downloader struct {
	client       *http.Client
	robots       *RobotsChecker
	userAgent    string
	maxBodyBytes int64
}

// NewDownloader creates a downloader from the HTTP configuration.
func NewDownloader(cfg model.HTTPConfig) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: newProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
		},
		robots:       NewRobotsChecker(cfg.UserAgent, cfg.Timeout),
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// DownloadAndUnzip fetches a zip archive and extracts it into destination.
// The archives are expected to contain exactly one XML document; its file
// name (relative to destination) is returned.
func (d *Downloader) DownloadAndUnzip(ctx context.Context, rawURL, destination string) (string, error) {
	if !d.robots.IsAllowed(ctx, rawURL) {
		return "", fmt.Errorf("robots.txt disallows fetching %s", rawURL)
	}

	body, err := d.fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	reader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("open zip archive: %w", err)
	}

	var xmlName string
	for _, f := range reader.File {
		if err := extractZipFile(f, destination); err != nil {
			return "", err
		}
		if strings.HasSuffix(f.Name, ".xml") {
			if xmlName != "" {
				return "", fmt.Errorf("archive %s contains more than one XML document", rawURL)
			}
			xmlName = f.Name
		}
	}
	if xmlName == "" {
		return "", fmt.Errorf("archive %s contains no XML document", rawURL)
	}
	return xmlName, nil
}

// fetch reads the response body, capped at maxBodyBytes.
func (d *Downloader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", rawURL, resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, d.maxBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if int64(len(body)) > d.maxBodyBytes {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", rawURL, d.maxBodyBytes)
	}
	return body, nil
}

func extractZipFile(f *zip.File, destination string) error {
	// Guard against path traversal in archive entries.
	target := filepath.Join(destination, filepath.Clean("/"+f.Name))
	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", f.Name, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return nil
}

// newProxyFunc creates a proxy function based on configuration.
// If no proxy URLs are provided, falls back to environment variables.
func newProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}
	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
