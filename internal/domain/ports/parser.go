package ports

import (
	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

// MarkupParser turns raw markup text into an ordered slide sequence.
// Implementations are permissive: unrecognized syntax is skipped, never
// reported.
type MarkupParser interface {
	Parse(markup string) entities.Deck
}

// TitleTranslator rewrites slide titles for a target locale
type TitleTranslator interface {
	Translate(deck entities.Deck, locale entities.Locale) entities.Deck
}
