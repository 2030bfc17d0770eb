package builders

import (
	"strconv"
	"strings"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

// DeckBuilder helps build Deck entities for testing
type DeckBuilder struct {
	title  *entities.Slide
	slides entities.Deck
}

// NewDeckBuilder creates an empty deck builder
func NewDeckBuilder() *DeckBuilder {
	return &DeckBuilder{}
}

// WithTitle sets the leading title slide
func (b *DeckBuilder) WithTitle(title string) *DeckBuilder {
	slide := entities.NewTitleSlide(title)
	if b.title != nil && b.title.HasAuthor {
		slide.SetAuthor(b.title.Author)
	}
	b.title = &slide
	return b
}

// WithAuthor attaches an author to the title slide, creating one if needed
func (b *DeckBuilder) WithAuthor(author string) *DeckBuilder {
	if b.title == nil {
		slide := entities.NewTitleSlide("")
		b.title = &slide
	}
	b.title.SetAuthor(author)
	return b
}

// WithSlide appends a prepared slide
func (b *DeckBuilder) WithSlide(slide entities.Slide) *DeckBuilder {
	b.slides = append(b.slides, slide)
	return b
}

// WithBullets appends a content slide holding one bullet per entry
func (b *DeckBuilder) WithBullets(title string, bullets ...string) *DeckBuilder {
	return b.WithSlide(NewSlideBuilder().WithTitle(title).WithBullets(bullets...).Build())
}

// WithSlideCount appends count numbered content slides
func (b *DeckBuilder) WithSlideCount(count int) *DeckBuilder {
	for i := 1; i <= count; i++ {
		b.WithBullets("Slide "+strconv.Itoa(i), "Point "+strconv.Itoa(i))
	}
	return b
}

// Build creates the final Deck
func (b *DeckBuilder) Build() entities.Deck {
	deck := make(entities.Deck, 0, len(b.slides)+1)
	if b.title != nil {
		deck = append(deck, *b.title)
	}
	deck = append(deck, b.slides...)
	return deck.Clone()
}

// SlideBuilder helps build content slides for testing
type SlideBuilder struct {
	slide entities.Slide
}

// NewSlideBuilder creates a content slide builder with a default title
func NewSlideBuilder() *SlideBuilder {
	return &SlideBuilder{slide: entities.NewContentSlide("Test Slide", nil)}
}

// WithTitle sets the slide title
func (b *SlideBuilder) WithTitle(title string) *SlideBuilder {
	b.slide.Title = title
	return b
}

// WithBullets appends bullet items
func (b *SlideBuilder) WithBullets(texts ...string) *SlideBuilder {
	for _, text := range texts {
		b.slide.Items = append(b.slide.Items, entities.Bullet(text))
	}
	return b
}

// WithText appends plain text items
func (b *SlideBuilder) WithText(texts ...string) *SlideBuilder {
	for _, text := range texts {
		b.slide.Items = append(b.slide.Items, entities.Text(text))
	}
	return b
}

// WithRaw sets the unstructured body kept for article sections
func (b *SlideBuilder) WithRaw(raw string) *SlideBuilder {
	b.slide.Raw = raw
	return b
}

// Build creates the final Slide
func (b *SlideBuilder) Build() entities.Slide {
	slide := b.slide
	slide.Items = append([]entities.ContentItem{}, b.slide.Items...)
	return slide
}

// BeamerSource writes deck back out as beamer markup. Text items become
// plain frame lines, bullets are grouped into itemize blocks.
func BeamerSource(deck entities.Deck) string {
	var sb strings.Builder
	sb.WriteString("\\documentclass{beamer}\n")

	title, content := deck.SplitTitle()
	if title != nil {
		sb.WriteString("\\title{" + title.Title + "}\n")
		if title.HasAuthor {
			sb.WriteString("\\author{" + title.Author + "}\n")
		}
	}
	sb.WriteString("\\begin{document}\n")

	for _, slide := range content {
		sb.WriteString("\\begin{frame}{" + slide.Title + "}\n")
		inList := false
		for _, item := range slide.Items {
			if item.IsBullet() != inList {
				if inList {
					sb.WriteString("\\end{itemize}\n")
				} else {
					sb.WriteString("\\begin{itemize}\n")
				}
				inList = item.IsBullet()
			}
			if item.IsBullet() {
				sb.WriteString("\\item " + item.Text + "\n")
			} else {
				sb.WriteString(item.Text + "\n")
			}
		}
		if inList {
			sb.WriteString("\\end{itemize}\n")
		}
		sb.WriteString("\\end{frame}\n")
	}

	sb.WriteString("\\end{document}\n")
	return sb.String()
}

// Common decks for testing

// MinimalDeck is a title plus one itemized slide
func MinimalDeck() entities.Deck {
	return NewDeckBuilder().
		WithTitle("Demo").
		WithBullets("Intro", "First", "Second").
		Build()
}

// LargeDeck has a titled author slide and 50 content slides
func LargeDeck() entities.Deck {
	return NewDeckBuilder().
		WithTitle("Large Deck").
		WithAuthor("Test Author").
		WithSlideCount(50).
		Build()
}
