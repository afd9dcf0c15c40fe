package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// fetchHTML is the direct strategy: one GET with browser-shaped headers.
func (c *Client) fetchHTML(ctx context.Context, target string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", "", fmt.Errorf("build request for %s: %w", target, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	// Advertise gzip only; the stdlib cannot decode brotli.
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("fetch %s: %s", target, resp.Status)
	}

	body, err := readBody(resp)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", target, err)
	}
	return string(body), finalURL, nil
}

// fetchSheet retrieves one external stylesheet, consulting the cache first.
// Failures are reported as a miss; the page still themes with less data.
func (c *Client) fetchSheet(ctx context.Context, sheetURL string) (string, bool) {
	if c.cfg.Cache != nil {
		if text, ok := c.cfg.Cache.Get(sheetURL); ok {
			return text, true
		}
	}

	sctx, cancel := context.WithTimeout(ctx, c.cfg.AssetTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(sctx, http.MethodGet, sheetURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/css,*/*;q=0.1")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Debug("stylesheet fetch failed", "url", sheetURL, "err", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.logger.Debug("stylesheet fetch rejected", "url", sheetURL, "status", resp.Status)
		return "", false
	}
	// Some origins answer missing sheets with an HTML error page and 200.
	if ct := strings.ToLower(resp.Header.Get("Content-Type")); strings.Contains(ct, "text/html") {
		c.logger.Debug("stylesheet fetch returned html", "url", sheetURL)
		return "", false
	}

	body, err := readBody(resp)
	if err != nil || len(body) == 0 {
		return "", false
	}
	text := string(body)
	if c.cfg.Cache != nil {
		c.cfg.Cache.Put(sheetURL, text)
	}
	return text, true
}

// readBody drains a response, undoing the content encoding ourselves
// since setting Accept-Encoding disables the transport's decompression.
// A body that does not decode as its declared encoding is returned raw.
func readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		if gr, err := gzip.NewReader(bytes.NewReader(raw)); err == nil {
			defer gr.Close()
			if out, err := io.ReadAll(gr); err == nil {
				return out, nil
			}
		}
	case "deflate":
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer zr.Close()
			if out, err := io.ReadAll(zr); err == nil {
				return out, nil
			}
		}
		fr := flate.NewReader(bytes.NewReader(raw))
		defer fr.Close()
		if out, err := io.ReadAll(fr); err == nil {
			return out, nil
		}
	}
	return raw, nil
}
