package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// Delimiter is the line that separates slides
const Delimiter = "---"

var metadataKeyLine = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*\s*:`)

// Segmenter splits a slide deck body into slides. It holds no per-call
// state and is safe for concurrent use.
type Segmenter struct {
	renderer ports.MarkdownRenderer
	metrics  ports.MetricsRecorder
	logger   ports.Logger
}

// NewSegmenter creates a segmenter rendering slides with renderer.
// metrics and logger may be nil.
func NewSegmenter(renderer ports.MarkdownRenderer, metrics ports.MetricsRecorder, logger ports.Logger) *Segmenter {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &Segmenter{
		renderer: renderer,
		metrics:  metrics,
		logger:   logger,
	}
}

// foldState is threaded through the left-to-right scan of segments.
type foldState struct {
	pendingGlobal bool
	slides        []entities.Slide
}

// Parse splits body into slides. The global metadata is copied onto the
// first slide only when the document opens with a content segment. Parse
// never fails: malformed metadata degrades to an empty map and a metadata
// block with nothing after it is dropped.
func (s *Segmenter) Parse(body string, global map[string]any) []entities.Slide {
	start := time.Now()

	segments := SplitSegments(body)
	state := foldState{pendingGlobal: true, slides: []entities.Slide{}}

	for cursor := 0; cursor < len(segments); {
		state, cursor = s.step(state, segments, cursor, global)
	}

	s.metrics.ObserveSegmentation(len(state.slides), time.Since(start))
	return state.slides
}

// step consumes the segment at cursor (and the following one when the
// segment is metadata) and returns the new state and cursor.
func (s *Segmenter) step(state foldState, segments []string, cursor int, global map[string]any) (foldState, int) {
	segment := strings.TrimSpace(segments[cursor])
	if segment == "" {
		return state, cursor + 1
	}

	var (
		content  string
		metadata map[string]any
		next     int
	)

	if IsMetadataSegment(segment) {
		metadata = s.parseMetadata(segment)
		if cursor+1 >= len(segments) {
			state.pendingGlobal = false
			return state, cursor + 1
		}
		content = strings.TrimSpace(segments[cursor+1])
		next = cursor + 2
	} else {
		content = segment
		metadata = map[string]any{}
		if state.pendingGlobal && len(state.slides) == 0 {
			metadata = entities.CloneMetadata(global)
		}
		next = cursor + 1
	}

	state.pendingGlobal = false

	content = trimBlankLines(content)
	if content == "" {
		return state, next
	}

	state.slides = append(state.slides, s.newSlide(len(state.slides)+1, content, metadata))
	return state, next
}

func (s *Segmenter) newSlide(id int, content string, metadata map[string]any) entities.Slide {
	html, err := s.renderer.Render(ports.ProfileSlide, content)
	if err != nil {
		s.logger.Warn("rendering slide %d: %v", id, err)
		html = ""
	}
	return entities.Slide{
		ID:       id,
		Content:  content,
		HTML:     html,
		Metadata: metadata,
	}
}

// parseMetadata decodes a metadata segment, falling back to an empty map
// when the YAML is invalid or is not a mapping.
func (s *Segmenter) parseMetadata(segment string) map[string]any {
	var raw any
	if err := yaml.Unmarshal([]byte(segment), &raw); err != nil {
		s.logger.Debug("metadata segment is not valid YAML: %v", err)
		s.metrics.IncMetadataFallback()
		return map[string]any{}
	}

	m, ok := normalizeYAML(raw).(map[string]any)
	if !ok {
		s.metrics.IncMetadataFallback()
		return map[string]any{}
	}
	return m
}

// SplitSegments splits body on every line that is exactly the delimiter.
// CRLF line endings are normalised first and delimiter lines are dropped.
func SplitSegments(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")

	var (
		segments []string
		current  []string
	)
	for _, line := range strings.Split(body, "\n") {
		if line == Delimiter {
			segments = append(segments, strings.Join(current, "\n"))
			current = current[:0]
			continue
		}
		current = append(current, line)
	}
	return append(segments, strings.Join(current, "\n"))
}

// IsMetadataSegment reports whether a segment reads as a flat YAML block:
// it contains a colon, does not open with a heading, and every non-blank
// line is either a # comment or starts with an identifier key.
func IsMetadataSegment(segment string) bool {
	segment = strings.TrimSpace(segment)
	if segment == "" || !strings.Contains(segment, ":") || strings.HasPrefix(segment, "#") {
		return false
	}

	for _, line := range strings.Split(segment, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !metadataKeyLine.MatchString(line) {
			return false
		}
	}
	return true
}

// trimBlankLines drops whitespace-only lines from both ends of text.
func trimBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// normalizeYAML converts map[any]any values produced for non-string keys
// into map[string]any so the result can be encoded as JSON.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}

var _ ports.SlideParser = (*Segmenter)(nil)
