package entities

import (
	"strconv"
	"strings"
)

// SlideKind tags the variant held by a Slide
type SlideKind int

const (
	// SlideKindTitle is the deck title surface (title + optional author)
	SlideKindTitle SlideKind = iota
	// SlideKindContent is a slide built from one frame block
	SlideKindContent
)

// String returns the string representation of SlideKind
func (k SlideKind) String() string {
	switch k {
	case SlideKindTitle:
		return "title"
	case SlideKindContent:
		return "content"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind with its string name
func (k SlideKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ItemKind tags the variant held by a ContentItem
type ItemKind int

const (
	// ItemKindBullet comes from an \item line inside an itemize block
	ItemKindBullet ItemKind = iota
	// ItemKindText comes from a plain line inside a frame
	ItemKindText
)

// String returns the string representation of ItemKind
func (k ItemKind) String() string {
	switch k {
	case ItemKindBullet:
		return "bullet"
	case ItemKindText:
		return "text"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind with its string name
func (k ItemKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ContentItem is a single line of slide body content
type ContentItem struct {
	Kind ItemKind `json:"type"`
	Text string   `json:"text"`
}

// Bullet creates a bullet item
func Bullet(text string) ContentItem {
	return ContentItem{Kind: ItemKindBullet, Text: text}
}

// Text creates a plain text item
func Text(text string) ContentItem {
	return ContentItem{Kind: ItemKindText, Text: text}
}

// IsBullet reports whether the item came from a list entry
func (i ContentItem) IsBullet() bool {
	return i.Kind == ItemKindBullet
}

// Slide is one entry of a parsed deck.
// Author/HasAuthor are only meaningful for title slides, Items and Raw only
// for content slides.
type Slide struct {
	Kind      SlideKind     `json:"type"`
	Title     string        `json:"title"`
	Author    string        `json:"author,omitempty"`
	HasAuthor bool          `json:"-"`
	Items     []ContentItem `json:"content"`

	// Raw is unstructured body text kept by the article parser when a
	// section has no list items
	Raw string `json:"raw,omitempty"`
}

// NewTitleSlide creates a title slide without author
func NewTitleSlide(title string) Slide {
	return Slide{Kind: SlideKindTitle, Title: title}
}

// NewContentSlide creates a content slide; a nil item slice is normalized
// to an empty one so empty frames still carry a body
func NewContentSlide(title string, items []ContentItem) Slide {
	if items == nil {
		items = []ContentItem{}
	}
	return Slide{Kind: SlideKindContent, Title: title, Items: items}
}

// IsTitle reports whether the slide is the deck title surface
func (s Slide) IsTitle() bool {
	return s.Kind == SlideKindTitle
}

// IsContent reports whether the slide is a frame slide
func (s Slide) IsContent() bool {
	return s.Kind == SlideKindContent
}

// SetAuthor attaches an author to a title slide
func (s *Slide) SetAuthor(author string) {
	s.Author = author
	s.HasAuthor = true
}

// HasBody returns true if the slide has items or raw text to show
func (s Slide) HasBody() bool {
	return len(s.Items) > 0 || strings.TrimSpace(s.Raw) != ""
}

// Deck is the ordered slide sequence produced by one parse
type Deck []Slide

// SplitTitle separates a leading title slide from the content slides.
// Renderers call this before iterating content.
func (d Deck) SplitTitle() (*Slide, Deck) {
	if len(d) > 0 && d[0].IsTitle() {
		title := d[0]
		return &title, d[1:]
	}
	return nil, d
}

// ContentCount returns the number of content slides in the deck
func (d Deck) ContentCount() int {
	count := 0
	for _, s := range d {
		if s.IsContent() {
			count++
		}
	}
	return count
}

// Clone returns a deep copy of the deck
func (d Deck) Clone() Deck {
	if d == nil {
		return nil
	}
	out := make(Deck, len(d))
	for i, s := range d {
		out[i] = s
		if s.Items != nil {
			out[i].Items = append([]ContentItem{}, s.Items...)
		}
	}
	return out
}

// Summary returns a short human readable description of the deck
func (d Deck) Summary() string {
	return strconv.Itoa(len(d)) + " slides (" + strconv.Itoa(d.ContentCount()) + " content)"
}
