package entities

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Locale identifies the output language of a conversion
type Locale string

const (
	LocaleEnglish Locale = "english"
	LocaleRussian Locale = "russian"
)

// ParseLocale normalizes a locale name; empty input means english
func ParseLocale(s string) (Locale, error) {
	switch Locale(strings.ToLower(strings.TrimSpace(s))) {
	case "", LocaleEnglish:
		return LocaleEnglish, nil
	case LocaleRussian:
		return LocaleRussian, nil
	default:
		return "", fmt.Errorf("unsupported locale: %s (must be english or russian)", s)
	}
}

// Suffix returns the title-cased locale name used in artifact filenames
func (l Locale) Suffix() string {
	if l == "" {
		l = LocaleEnglish
	}
	return cases.Title(language.English).String(string(l))
}

// Format identifies the artifact kind produced by a renderer
type Format string

const (
	// FormatSlideshow renders a .pptx slideshow
	FormatSlideshow Format = "slideshow"
	// FormatDocument renders a paginated .pdf document
	FormatDocument Format = "document"
)

// ParseFormat normalizes a format name. The file extensions pptx and pdf
// are accepted as aliases; empty input means slideshow.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "slideshow", "pptx":
		return FormatSlideshow, nil
	case "document", "pdf":
		return FormatDocument, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (must be slideshow or document)", s)
	}
}

// Extension returns the artifact file extension without the dot
func (f Format) Extension() string {
	if f == FormatDocument {
		return "pdf"
	}
	return "pptx"
}

// MimeType returns the content type of artifacts in this format
func (f Format) MimeType() string {
	if f == FormatDocument {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
}

// SortFormats orders formats in place: slideshow first as the default,
// the rest by name
func SortFormats(formats []Format) {
	sort.Slice(formats, func(i, j int) bool {
		if formats[i] == FormatSlideshow || formats[j] == FormatSlideshow {
			return formats[i] == FormatSlideshow && formats[j] != FormatSlideshow
		}
		return formats[i] < formats[j]
	})
}

// Stage returns the render stage name used when wrapping renderer errors
func (f Format) Stage() string {
	if f == FormatDocument {
		return "creating document"
	}
	return "creating slideshow"
}

// MarkupMode selects which markup parser reads the input
type MarkupMode string

const (
	// ModeBeamer reads frame blocks (the default)
	ModeBeamer MarkupMode = "beamer"
	// ModeArticle reads \subsection blocks, the lower-fidelity path
	ModeArticle MarkupMode = "article"
)

// ParseMarkupMode normalizes a mode name; empty input means beamer
func ParseMarkupMode(s string) (MarkupMode, error) {
	switch MarkupMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBeamer:
		return ModeBeamer, nil
	case ModeArticle:
		return ModeArticle, nil
	default:
		return "", fmt.Errorf("unsupported markup mode: %s (must be beamer or article)", s)
	}
}

// ConversionRequest is one markup-to-artifact job
type ConversionRequest struct {
	Markup string
	Locale Locale
	Format Format
	Mode   MarkupMode

	// Media lists image/video paths already placed in the output media
	// directory
	Media []string
}

// ConversionResult describes a successfully written artifact
type ConversionResult struct {
	Filename    string        `json:"filename"`
	Path        string        `json:"path"`
	SlideCount  int           `json:"slide_count"`
	Format      Format        `json:"format"`
	Locale      Locale        `json:"locale"`
	FileSize    int64         `json:"file_size"`
	Duration    time.Duration `json:"duration"`
	MediaSkip   int           `json:"media_skipped,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// ConversionErrorType categorizes conversion failures
type ConversionErrorType string

const (
	ErrorTypeValidation ConversionErrorType = "validation"
	ErrorTypeEmptyDeck  ConversionErrorType = "empty_deck"
	ErrorTypeRender     ConversionErrorType = "render"
	ErrorTypeFilesystem ConversionErrorType = "filesystem"
)

// ConversionError carries the failure category of a conversion
type ConversionError struct {
	Type    ConversionErrorType `json:"type"`
	Message string              `json:"message"`
	Path    string              `json:"path,omitempty"`
	Cause   error               `json:"-"`
}

func (e *ConversionError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// MsgNoSlides is surfaced to service clients when the markup, empty or
// not, yields no slides
const MsgNoSlides = "No slides found in LaTeX code"

// TranslationRule is one substring substitution applied to slide titles
type TranslationRule struct {
	Pattern     string `yaml:"pattern" toml:"pattern" json:"pattern"`
	Replacement string `yaml:"replacement" toml:"replacement" json:"replacement"`
}

// TranslationTable holds ordered rules per locale. Rule order is part of
// the contract: overlapping patterns resolve in list order.
type TranslationTable map[Locale][]TranslationRule

// Rules returns the rules registered for a locale
func (t TranslationTable) Rules(locale Locale) []TranslationRule {
	if t == nil {
		return nil
	}
	return t[locale]
}

// DefaultTranslationTable returns the built-in english to russian title
// glossary
func DefaultTranslationTable() TranslationTable {
	return TranslationTable{
		LocaleRussian: {
			{Pattern: "Introduction", Replacement: "Введение"},
			{Pattern: "Overview", Replacement: "Обзор"},
			{Pattern: "Conclusion", Replacement: "Заключение"},
			{Pattern: "Summary", Replacement: "Резюме"},
			{Pattern: "Features", Replacement: "Функции"},
			{Pattern: "Benefits", Replacement: "Преимущества"},
			{Pattern: "Getting Started", Replacement: "Начало работы"},
			{Pattern: "Technical", Replacement: "Технический"},
			{Pattern: "Implementation", Replacement: "Реализация"},
		},
	}
}
