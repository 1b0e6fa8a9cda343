package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// DiscoverArchiveLink scans a law's portal page for the XML archive link
// (the "xml.zip" anchor every law page on gesetze-im-internet.de carries)
// and returns it resolved against the page URL. Registry entries can point
// at stale archive links after portal reorganisations; discovery repairs
// them from the page itself.
func (d *Downloader) DiscoverArchiveLink(ctx context.Context, pageURL string) (string, error) {
	if !d.robots.IsAllowed(ctx, pageURL) {
		return "", fmt.Errorf("robots.txt disallows fetching %s", pageURL)
	}

	body, err := d.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse portal page: %w", err)
	}

	href := findArchiveHref(doc)
	if href == "" {
		return "", fmt.Errorf("no XML archive link on %s", pageURL)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page URL: %w", err)
	}
	resolved, err := base.Parse(href)
	if err != nil {
		return "", fmt.Errorf("resolve archive link %q: %w", href, err)
	}
	return resolved.String(), nil
}

// findArchiveHref walks the parsed page and returns the first anchor href
// ending in "xml.zip".
func findArchiveHref(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, attr := range n.Attr {
			if attr.Key == "href" && strings.HasSuffix(attr.Val, "xml.zip") {
				return attr.Val
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := findArchiveHref(c); href != "" {
			return href
		}
	}
	return ""
}
