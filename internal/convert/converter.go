package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Result is one converted document. A nil *Result (with nil error) means the
// engine found no usable content, which callers treat as a conversion miss
// rather than a failure of the engine itself.
type Result struct {
	Title    string
	Markdown string
}

type Converter interface {
	ConvertURL(ctx context.Context, rawURL string) (*Result, error)
	ConvertBuffer(ctx context.Context, data []byte, extension string) (*Result, error)
	ConvertHTML(ctx context.Context, html string, sourceURL string) (*Result, error)
}

type Factory func(args interface{}) (Converter, error)

var registry = map[string]Factory{}

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func New(name string, args interface{}) (Converter, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("converter name is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported converter: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode converter config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode converter config: %w", err)
	}
	return nil
}
