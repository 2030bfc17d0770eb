package builders

import "github.com/fredcamaral/texdeck/internal/domain/entities"

// RequestBuilder helps build ConversionRequest values for testing
type RequestBuilder struct {
	req entities.ConversionRequest
}

// NewRequestBuilder creates an English slideshow request for MinimalDeck
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{req: entities.ConversionRequest{
		Markup: BeamerSource(MinimalDeck()),
		Locale: entities.LocaleEnglish,
		Format: entities.FormatSlideshow,
		Mode:   entities.ModeBeamer,
	}}
}

// WithMarkup replaces the source markup
func (b *RequestBuilder) WithMarkup(markup string) *RequestBuilder {
	b.req.Markup = markup
	return b
}

// WithDeck sets the source markup to the beamer form of deck
func (b *RequestBuilder) WithDeck(deck entities.Deck) *RequestBuilder {
	b.req.Markup = BeamerSource(deck)
	return b
}

// WithLocale sets the title locale
func (b *RequestBuilder) WithLocale(locale entities.Locale) *RequestBuilder {
	b.req.Locale = locale
	return b
}

// WithFormat sets the output format
func (b *RequestBuilder) WithFormat(format entities.Format) *RequestBuilder {
	b.req.Format = format
	return b
}

// WithMode sets the markup mode
func (b *RequestBuilder) WithMode(mode entities.MarkupMode) *RequestBuilder {
	b.req.Mode = mode
	return b
}

// WithMedia appends media paths
func (b *RequestBuilder) WithMedia(paths ...string) *RequestBuilder {
	b.req.Media = append(b.req.Media, paths...)
	return b
}

// Build creates the final request
func (b *RequestBuilder) Build() entities.ConversionRequest {
	req := b.req
	req.Media = append([]string(nil), b.req.Media...)
	if len(req.Media) == 0 {
		req.Media = nil
	}
	return req
}
