package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fredcamaral/coursekit/internal/adapters/secondary/markdown"
	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
	"github.com/fredcamaral/coursekit/internal/domain/services"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file.md|->",
		Short: "Split a markdown file into slides",
		Long: `Parse a slide file the way the API does and print the resulting deck.
Use "-" to read from standard input.

Example:
  coursekit parse courses/go/slides/slides.md
  cat slides.md | coursekit parse - --summary`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}

	cmd.Flags().Bool("summary", false, "Print one line per slide instead of JSON")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	resolved, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	cfg := resolved.Config

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	raw, err := readInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	renderer := markdown.NewGoldmarkRenderer(markdown.Options{
		HighlightStyle: cfg.Content.GetHighlightStyle(),
		Sanitize:       cfg.Content.SanitizeHTML,
	})
	deck := parseDeck(raw, renderer, logger.With("parse"))

	summary, _ := cmd.Flags().GetBool("summary")
	if summary {
		return writeSummary(cmd.OutOrStdout(), deck)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(deck)
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading standard input: %w", err)
		}
		return data, nil
	}

	info, err := os.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("accessing %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", name)
	}

	data, err := os.ReadFile(name) // #nosec G304 - path given on the command line
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// parseDeck splits front matter and segments the body. Unparseable front
// matter leaves the raw text as body.
func parseDeck(raw []byte, renderer ports.MarkdownRenderer, logger ports.Logger) *entities.Deck {
	meta, body, err := markdown.NewFrontMatterSplitter().Split(raw)
	if err != nil {
		logger.Warn("front matter ignored: %v", err)
		meta, body = map[string]any{}, string(raw)
	}

	html, err := renderer.Render(ports.ProfileSlide, body)
	if err != nil {
		logger.Warn("rendering document: %v", err)
	}

	return &entities.Deck{
		Metadata: meta,
		Slides:   services.NewSegmenter(renderer, nil, logger).Parse(body, meta),
		HTML:     html,
	}
}

func writeSummary(w io.Writer, deck *entities.Deck) error {
	for _, slide := range deck.Slides {
		keys := make([]string, 0, len(slide.Metadata))
		for k := range slide.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		first, _, _ := strings.Cut(slide.Content, "\n")
		if _, err := fmt.Fprintf(w, "%3d  %-50s  [%s]\n", slide.ID, first, strings.Join(keys, ", ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d slides\n", len(deck.Slides))
	return err
}
