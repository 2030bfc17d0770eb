package renderer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
)

// SlideRendererAdapter renders parsed slides to HTML fragments for preview.
// Each slide is first written as markdown, then converted with Goldmark.
type SlideRendererAdapter struct {
	md goldmark.Markdown
}

// NewSlideRendererAdapter creates a new slide renderer
func NewSlideRendererAdapter() *SlideRendererAdapter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	return &SlideRendererAdapter{
		md: md,
	}
}

// RenderSlides converts every slide of the deck to HTML, in deck order
func (r *SlideRendererAdapter) RenderSlides(deck entities.Deck) ([]string, error) {
	out := make([]string, 0, len(deck))
	for i := range deck {
		html, err := r.RenderSlide(deck[i])
		if err != nil {
			return nil, fmt.Errorf("rendering slide %d: %w", i, err)
		}
		out = append(out, html)
	}
	return out, nil
}

// RenderSlide converts one slide to HTML
func (r *SlideRendererAdapter) RenderSlide(slide entities.Slide) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(SlideMarkdown(slide)), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// SlideMarkdown writes a slide as markdown. Title slides become a level one
// heading with the author in emphasis; content slides a level two heading
// followed by their items.
func SlideMarkdown(slide entities.Slide) string {
	var b strings.Builder

	if slide.IsTitle() {
		fmt.Fprintf(&b, "# %s\n", escapeMarkdown(slide.Title))
		if slide.HasAuthor && slide.Author != "" {
			fmt.Fprintf(&b, "\n*%s*\n", escapeMarkdown(slide.Author))
		}
		return b.String()
	}

	fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(slide.Title))

	inList := false
	for _, item := range slide.Items {
		if item.IsBullet() {
			fmt.Fprintf(&b, "- %s\n", escapeMarkdown(item.Text))
			inList = true
			continue
		}
		if inList {
			b.WriteString("\n")
			inList = false
		}
		fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(item.Text))
	}

	if len(slide.Items) == 0 && slide.Raw != "" {
		fmt.Fprintf(&b, "%s\n", escapeMarkdown(slide.Raw))
	}

	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`#`, `\#`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `&lt;`,
	`>`, `&gt;`,
)

// escapeMarkdown keeps markup characters in slide text literal
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Ensure SlideRendererAdapter implements ports.PreviewRenderer
var _ ports.PreviewRenderer = (*SlideRendererAdapter)(nil)
