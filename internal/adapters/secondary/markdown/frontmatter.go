package markdown

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"

	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// FrontMatterSplitter implements ports.FrontMatterSplitter with
// adrg/frontmatter. YAML (---), TOML (+++) and JSON (;;;) blocks are
// recognised.
type FrontMatterSplitter struct{}

// NewFrontMatterSplitter creates a new splitter
func NewFrontMatterSplitter() *FrontMatterSplitter {
	return &FrontMatterSplitter{}
}

// Split separates the leading front matter from the body
func (FrontMatterSplitter) Split(raw []byte) (map[string]any, string, error) {
	meta := map[string]any{}

	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return map[string]any{}, string(raw), fmt.Errorf("parse frontmatter: %w", err)
	}

	out, ok := normalize(meta).(map[string]any)
	if !ok || out == nil {
		out = map[string]any{}
	}
	return out, string(body), nil
}

// normalize turns the map[interface{}]interface{} values produced by the
// YAML decoder into map[string]any so metadata can be encoded as JSON.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

var _ ports.FrontMatterSplitter = (*FrontMatterSplitter)(nil)
