// Package render invokes an external Kroki service to rasterize
// Mermaid diagram source. Failures are reported verbatim to the caller
// and never retried here — a caller-imposed timeout or retry policy is
// an external concern.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint is the public Kroki instance. Self-hosted
// deployments point Config.RendererURL elsewhere.
const DefaultEndpoint = "https://kroki.io"

const requestTimeout = 30 * time.Second

// Formats the renderer can produce.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// Client renders diagrams over HTTP.
type Client struct {
	base string
	http *http.Client
}

// New creates a renderer client against the given base URL; empty
// selects the default endpoint.
func New(base string) *Client {
	if base == "" {
		base = DefaultEndpoint
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: requestTimeout},
	}
}

// Render posts Mermaid source to the service and returns the rendered
// bytes in the requested format.
func (c *Client) Render(ctx context.Context, format, source string) ([]byte, error) {
	if format != FormatPNG && format != FormatSVG {
		return nil, fmt.Errorf("render: unsupported format %q", format)
	}

	url := fmt.Sprintf("%s/mermaid/%s", c.base, format)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte(source)))
	if err != nil {
		return nil, fmt.Errorf("render: build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render: call %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("render: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render: %s returned %d: %s", url, resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}
