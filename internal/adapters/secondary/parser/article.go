package parser

import (
	"regexp"
	"strings"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
)

// DefaultArticleTitle is used when an article has no \title
const DefaultArticleTitle = "Presentation"

var (
	articleTitleRe = regexp.MustCompile(`\\title\{([^}]+)\}`)
	subsectionRe   = regexp.MustCompile(`\\subsection\{([^}]+)\}`)
	blockEndRe     = regexp.MustCompile(`\\subsection|\\section|\\end\{document\}`)
	articleItemRe  = regexp.MustCompile(`\\item\s+([^\n\\]+)`)
	commandArgRe   = regexp.MustCompile(`\\[a-zA-Z]+\{[^}]*\}`)
	markupCharsRe  = regexp.MustCompile(`[{}\\]`)
)

// ArticleParser reads \subsection blocks of a regular article as slides.
// Each block runs until the next \subsection, \section or \end{document};
// blocks not followed by one of those are dropped.
type ArticleParser struct{}

// NewArticleParser creates a new article markup parser
func NewArticleParser() *ArticleParser {
	return &ArticleParser{}
}

// Parse implements ports.MarkupParser
func (p *ArticleParser) Parse(markup string) entities.Deck {
	title := DefaultArticleTitle
	if m := articleTitleRe.FindStringSubmatch(markup); m != nil {
		title = m[1]
	}

	deck := entities.Deck{entities.NewTitleSlide(title)}

	for _, loc := range subsectionRe.FindAllStringSubmatchIndex(markup, -1) {
		rest := markup[loc[1]:]
		end := blockEndRe.FindStringIndex(rest)
		if end == nil {
			continue
		}
		body := strings.TrimSpace(rest[:end[0]])
		deck = append(deck, articleSlide(markup[loc[2]:loc[3]], body))
	}

	return deck
}

func articleSlide(title, body string) entities.Slide {
	var items []entities.ContentItem
	for _, m := range articleItemRe.FindAllStringSubmatch(body, -1) {
		items = append(items, entities.Bullet(strings.TrimSpace(m[1])))
	}

	slide := entities.NewContentSlide(title, items)
	if len(items) == 0 {
		slide.Raw = CleanRaw(body)
	}
	return slide
}

// CleanRaw strips commands with a brace argument, then any leftover braces
// and backslashes
func CleanRaw(body string) string {
	clean := commandArgRe.ReplaceAllString(body, "")
	clean = markupCharsRe.ReplaceAllString(clean, "")
	return strings.TrimSpace(clean)
}

// ParserFor returns the parser for a markup mode
func ParserFor(mode entities.MarkupMode) ports.MarkupParser {
	if mode == entities.ModeArticle {
		return NewArticleParser()
	}
	return NewBeamerParser()
}

// Ensure ArticleParser implements ports.MarkupParser
var _ ports.MarkupParser = (*ArticleParser)(nil)
