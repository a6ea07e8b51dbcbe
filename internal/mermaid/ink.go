package mermaid

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const DefaultInkURL = "https://mermaid.ink"

// InkEngine renders diagrams through a mermaid.ink server.
type InkEngine struct {
	baseURL string
	theme   string
	client  *retryablehttp.Client
}

func NewInkEngine(baseURL string, theme string) *InkEngine {
	if baseURL == "" {
		baseURL = DefaultInkURL
	}
	if theme == "" {
		theme = "default"
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = nil

	return &InkEngine{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		theme:   theme,
		client:  client,
	}
}

// Pako encodes a diagram the way mermaid.live and mermaid.ink expect it:
// a JSON state deflated with zlib then base64url-encoded.
func Pako(source string, theme string) (string, error) {
	state := map[string]any{
		"code": source,
		"mermaid": map[string]string{
			"theme": theme,
		},
	}
	jsonBytes, err := json.Marshal(state)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := writer.Write(jsonBytes); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}
	return "pako:" + base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

// URL returns the address of the SVG rendering of the diagram.
func (e *InkEngine) URL(source string) (string, error) {
	pako, err := Pako(source, e.theme)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/svg/%s", e.baseURL, pako), nil
}

// Render downloads the SVG. The id is not needed as the server
// generates its own element ids.
func (e *InkEngine) Render(ctx context.Context, id string, source string) (string, error) {
	url, err := e.URL(source)
	if err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "image/svg+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to render diagram %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to render diagram %s: HTTP %d", id, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read diagram %s: %w", id, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmptyOutput
	}
	return string(data), nil
}
