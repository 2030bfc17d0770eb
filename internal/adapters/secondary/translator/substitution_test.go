package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

func TestSubstitutionTranslator_Translate(t *testing.T) {
	tr := NewSubstitutionTranslator(entities.DefaultTranslationTable())

	t.Run("russian titles", func(t *testing.T) {
		deck := entities.Deck{
			entities.NewTitleSlide("Project Overview"),
			entities.NewContentSlide("Introduction", nil),
			entities.NewContentSlide("Getting Started with Features", nil),
		}

		out := tr.Translate(deck, entities.LocaleRussian)
		require.Len(t, out, 3)
		assert.Equal(t, "Project Обзор", out[0].Title)
		assert.Equal(t, "Введение", out[1].Title)
		assert.Equal(t, "Начало работы with Функции", out[2].Title)
	})

	t.Run("body text untouched", func(t *testing.T) {
		deck := entities.Deck{
			entities.NewContentSlide("Summary", []entities.ContentItem{
				entities.Bullet("Summary of Benefits"),
				entities.Text("Introduction"),
			}),
		}

		out := tr.Translate(deck, entities.LocaleRussian)
		assert.Equal(t, "Резюме", out[0].Title)
		assert.Equal(t, "Summary of Benefits", out[0].Items[0].Text)
		assert.Equal(t, "Introduction", out[0].Items[1].Text)
	})

	t.Run("author untouched", func(t *testing.T) {
		title := entities.NewTitleSlide("Overview")
		title.SetAuthor("Overview Team")

		out := tr.Translate(entities.Deck{title}, entities.LocaleRussian)
		assert.Equal(t, "Обзор", out[0].Title)
		assert.Equal(t, "Overview Team", out[0].Author)
	})

	t.Run("input deck is not modified", func(t *testing.T) {
		deck := entities.Deck{entities.NewContentSlide("Conclusion", []entities.ContentItem{entities.Text("x")})}

		out := tr.Translate(deck, entities.LocaleRussian)
		assert.Equal(t, "Заключение", out[0].Title)
		assert.Equal(t, "Conclusion", deck[0].Title)
	})

	t.Run("locale without rules is identity", func(t *testing.T) {
		deck := entities.Deck{entities.NewContentSlide("Introduction", nil)}
		out := tr.Translate(deck, entities.LocaleEnglish)
		assert.Equal(t, deck, out)
	})

	t.Run("empty table is identity", func(t *testing.T) {
		empty := NewSubstitutionTranslator(nil)
		deck := entities.Deck{entities.NewContentSlide("Introduction", nil)}
		assert.Equal(t, deck, empty.Translate(deck, entities.LocaleRussian))
		assert.False(t, empty.HasRules(entities.LocaleRussian))
	})

	t.Run("case sensitive and substring based", func(t *testing.T) {
		deck := entities.Deck{
			entities.NewContentSlide("introduction", nil),
			entities.NewContentSlide("Technicalities", nil),
		}
		out := tr.Translate(deck, entities.LocaleRussian)
		assert.Equal(t, "introduction", out[0].Title)
		assert.Equal(t, "Техническийities", out[1].Title)
	})
}

func TestApplyRules(t *testing.T) {
	t.Run("order decides overlapping patterns", func(t *testing.T) {
		longFirst := []entities.TranslationRule{
			{Pattern: "Getting Started", Replacement: "A"},
			{Pattern: "Getting", Replacement: "B"},
		}
		shortFirst := []entities.TranslationRule{
			{Pattern: "Getting", Replacement: "B"},
			{Pattern: "Getting Started", Replacement: "A"},
		}

		assert.Equal(t, "A", ApplyRules("Getting Started", longFirst))
		assert.Equal(t, "B Started", ApplyRules("Getting Started", shortFirst))
	})

	t.Run("later rules see earlier replacements", func(t *testing.T) {
		rules := []entities.TranslationRule{
			{Pattern: "cat", Replacement: "dog"},
			{Pattern: "dog", Replacement: "bird"},
		}
		assert.Equal(t, "bird bird", ApplyRules("cat dog", rules))
	})

	t.Run("not idempotent when a replacement contains its pattern", func(t *testing.T) {
		rules := []entities.TranslationRule{{Pattern: "a", Replacement: "aa"}}
		once := ApplyRules("a", rules)
		assert.Equal(t, "aa", once)
		assert.Equal(t, "aaaa", ApplyRules(once, rules))
	})

	t.Run("empty pattern is skipped", func(t *testing.T) {
		rules := []entities.TranslationRule{{Pattern: "", Replacement: "x"}}
		assert.Equal(t, "abc", ApplyRules("abc", rules))
	})
}
