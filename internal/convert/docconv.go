package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"code.sajari.com/docconv"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	defaultConvertTimeout = 30 * time.Second
	defaultUserAgent      = "Mozilla/5.0 (compatible; linkhoard/1.0)"
	maxFetchBytes         = 20 << 20
)

func init() {
	Register("docconv", createDocconvConverter)
}

type docconvConfig struct {
	TimeoutSeconds int    `json:"timeout_seconds"`
	UserAgent      string `json:"user_agent"`
}

func createDocconvConverter(args interface{}) (Converter, error) {
	cfg := &docconvConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	timeout := defaultConvertTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &docconvConverter{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}, nil
}

type docconvConverter struct {
	client    *http.Client
	userAgent string
}

func (d *docconvConverter) ConvertURL(ctx context.Context, rawURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	rsp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch url: %w", err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch url: unexpected status %d", rsp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(rsp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	contentType := rsp.Header.Get("Content-Type")
	mediaType, _, _ := strings.Cut(contentType, ";")
	contentType = strings.TrimSpace(mediaType)
	if contentType == "" || strings.Contains(contentType, "text/html") {
		return d.ConvertHTML(ctx, string(data), rawURL)
	}
	return d.extract(ctx, data, contentType)
}

func (d *docconvConverter) ConvertBuffer(ctx context.Context, data []byte, extension string) (*Result, error) {
	mimeType := docconv.MimeTypeByExtension("file" + extension)
	return d.extract(ctx, data, mimeType)
}

func (d *docconvConverter) ConvertHTML(ctx context.Context, html string, sourceURL string) (*Result, error) {
	res, err := d.extract(ctx, []byte(html), "text/html")
	if err != nil {
		logutil.GetLogger(ctx).Warn("html extraction failed", zap.String("source_url", sourceURL), zap.Error(err))
		return nil, err
	}
	return res, nil
}

func (d *docconvConverter) extract(_ context.Context, data []byte, mimeType string) (*Result, error) {
	res, err := docconv.Convert(bytes.NewReader(data), mimeType, true)
	if err != nil {
		return nil, fmt.Errorf("extract content: %w", err)
	}
	body := strings.TrimSpace(res.Body)
	if body == "" {
		return nil, nil
	}
	title := ""
	if res.Meta != nil {
		title = strings.TrimSpace(res.Meta["title"])
	}
	if title == "" {
		title = firstHeading(body)
	}
	return &Result{Title: title, Markdown: body}, nil
}
