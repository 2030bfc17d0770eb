package translator

import (
	"strings"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
)

// SubstitutionTranslator rewrites slide titles with an ordered list of
// substring replacements per locale. Every rule is applied to the output of
// the previous one, so a replacement can itself be matched by a later
// pattern.
type SubstitutionTranslator struct {
	table entities.TranslationTable
}

// NewSubstitutionTranslator creates a translator over the given table
func NewSubstitutionTranslator(table entities.TranslationTable) *SubstitutionTranslator {
	return &SubstitutionTranslator{table: table}
}

// Translate implements ports.TitleTranslator. The input deck is not
// modified; body items are never touched.
func (t *SubstitutionTranslator) Translate(deck entities.Deck, locale entities.Locale) entities.Deck {
	rules := t.table.Rules(locale)
	if len(rules) == 0 {
		return deck
	}

	out := deck.Clone()
	for i := range out {
		out[i].Title = ApplyRules(out[i].Title, rules)
	}
	return out
}

// HasRules reports whether the locale has any substitution registered
func (t *SubstitutionTranslator) HasRules(locale entities.Locale) bool {
	return len(t.table.Rules(locale)) > 0
}

// ApplyRules runs every rule over s in list order
func ApplyRules(s string, rules []entities.TranslationRule) string {
	for _, r := range rules {
		if r.Pattern == "" {
			continue
		}
		s = strings.ReplaceAll(s, r.Pattern, r.Replacement)
	}
	return s
}

// Ensure SubstitutionTranslator implements ports.TitleTranslator
var _ ports.TitleTranslator = (*SubstitutionTranslator)(nil)
