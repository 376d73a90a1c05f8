package convert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

func init() {
	Register("jina", createJinaConverter)
}

type jinaConfig struct {
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// jinaConverter reads URLs through the Jina Reader service, which renders
// javascript-heavy pages the plain fetcher cannot. Buffers and raw HTML are
// delegated to the local docconv engine.
type jinaConverter struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	fallback Converter
}

func createJinaConverter(args interface{}) (Converter, error) {
	cfg := &jinaConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://r.jina.ai"
	}
	timeout := defaultConvertTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	fallback, err := createDocconvConverter(args)
	if err != nil {
		return nil, err
	}
	return &jinaConverter{
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		fallback: fallback,
	}, nil
}

func (j *jinaConverter) ConvertURL(ctx context.Context, rawURL string) (*Result, error) {
	readerURL := j.baseURL + "/" + url.QueryEscape(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, readerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	if j.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+j.apiKey)
	}
	rsp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch reader: %w", err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reader returned status %d", rsp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(rsp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return parseReaderResponse(string(body)), nil
}

func (j *jinaConverter) ConvertBuffer(ctx context.Context, data []byte, extension string) (*Result, error) {
	return j.fallback.ConvertBuffer(ctx, data, extension)
}

func (j *jinaConverter) ConvertHTML(ctx context.Context, html string, sourceURL string) (*Result, error) {
	return j.fallback.ConvertHTML(ctx, html, sourceURL)
}

// parseReaderResponse splits the reader's plain-text envelope. The response
// opens with "Title:" and "URL Source:" lines followed by a
// "Markdown Content:" section; anything else is treated as bare markdown.
func parseReaderResponse(body string) *Result {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	res := &Result{Markdown: body}
	if !strings.HasPrefix(body, "Title:") {
		return res
	}
	lines := strings.SplitN(body, "\n", 2)
	res.Title = strings.TrimSpace(strings.TrimPrefix(lines[0], "Title:"))
	if len(lines) < 2 {
		res.Markdown = ""
		return nil
	}
	rest := lines[1]
	if idx := strings.Index(rest, "Markdown Content:"); idx >= 0 {
		rest = rest[idx+len("Markdown Content:"):]
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil
	}
	res.Markdown = rest
	return res
}
