package translator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

// LoadTable reads a YAML translation table. The document maps locale names
// to ordered rule lists:
//
//	russian:
//	  - pattern: Introduction
//	    replacement: Введение
//
// Locales present in the file replace the built-in rules for that locale;
// other built-in locales are kept.
func LoadTable(path string) (entities.TranslationTable, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from trusted configuration
	if err != nil {
		return nil, fmt.Errorf("reading translation file: %w", err)
	}

	parsed, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("parsing translation file %s: %w", path, err)
	}

	table := entities.DefaultTranslationTable()
	for locale, rules := range parsed {
		table[locale] = rules
	}
	return table, nil
}

// ParseTable decodes YAML table content without merging defaults
func ParseTable(data []byte) (entities.TranslationTable, error) {
	var raw map[string][]entities.TranslationRule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}

	table := make(entities.TranslationTable, len(raw))
	for name, rules := range raw {
		locale, err := entities.ParseLocale(name)
		if err != nil {
			return nil, err
		}
		for i, r := range rules {
			if r.Pattern == "" {
				return nil, fmt.Errorf("%s rule %d: pattern cannot be empty", name, i)
			}
		}
		table[locale] = rules
	}
	return table, nil
}

// LoadOrDefault returns the table at path, or the built-in table when path
// is empty
func LoadOrDefault(path string) (entities.TranslationTable, error) {
	if path == "" {
		return entities.DefaultTranslationTable(), nil
	}
	return LoadTable(path)
}
