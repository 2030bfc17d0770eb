package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
	"github.com/fredcamaral/texdeck/internal/logging"
)

// ConversionDeps wires the collaborators of a ConversionService
type ConversionDeps struct {
	Parsers    map[entities.MarkupMode]ports.MarkupParser
	Translator ports.TitleTranslator
	Renderers  []ports.DeckRenderer
	Store      ports.ArtifactStore
	Clock      ports.TimeProvider
	// MaxAge is the artifact retention used by Cleanup
	MaxAge time.Duration
	Logger *logging.Logger
}

// ConversionService runs parse, translate and render for one request at a
// time. It holds no per-conversion state and is safe to share between
// handlers.
type ConversionService struct {
	parsers    map[entities.MarkupMode]ports.MarkupParser
	translator ports.TitleTranslator
	renderers  map[entities.Format]ports.DeckRenderer
	store      ports.ArtifactStore
	clock      ports.TimeProvider
	maxAge     time.Duration
	logger     *logging.Logger
}

// NewConversionService creates a new conversion service
func NewConversionService(deps ConversionDeps) (*ConversionService, error) {
	if len(deps.Parsers) == 0 {
		return nil, errors.New("at least one markup parser is required")
	}
	if deps.Store == nil {
		return nil, errors.New("artifact store is required")
	}
	if len(deps.Renderers) == 0 {
		return nil, errors.New("at least one renderer is required")
	}

	s := &ConversionService{
		parsers:    deps.Parsers,
		translator: deps.Translator,
		renderers:  make(map[entities.Format]ports.DeckRenderer, len(deps.Renderers)),
		store:      deps.Store,
		clock:      deps.Clock,
		maxAge:     deps.MaxAge,
		logger:     deps.Logger,
	}
	for _, r := range deps.Renderers {
		s.renderers[r.Format()] = r
	}
	if s.clock == nil {
		s.clock = ports.NewRealTimeProvider()
	}
	if s.maxAge <= 0 {
		s.maxAge = time.Hour
	}
	if s.logger == nil {
		s.logger = logging.New("convert")
	}

	return s, nil
}

// Convert turns one request into a written artifact
func (s *ConversionService) Convert(ctx context.Context, req entities.ConversionRequest) (*entities.ConversionResult, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	renderer, ok := s.renderers[req.Format]
	if !ok {
		return nil, &entities.ConversionError{
			Type:    entities.ErrorTypeValidation,
			Message: fmt.Sprintf("unsupported format: %s", req.Format),
		}
	}

	deck, err := s.buildDeck(req)
	if err != nil {
		return nil, err
	}

	// conversions are not interruptible once the renderer starts
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filename, path := s.store.ArtifactPath(req.Locale, req.Format)
	start := s.clock.Now()

	s.logger.Debug("rendering %s (%s) to %s", deck.Summary(), req.Format, filename)

	rendered, err := renderer.Render(ctx, deck, req.Media, path)
	if err != nil {
		if rmErr := s.store.Remove(path); rmErr != nil {
			s.logger.Warn("removing partial artifact %s: %v", filename, rmErr)
		}
		return nil, &entities.ConversionError{
			Type:    entities.ErrorTypeRender,
			Message: req.Format.Stage(),
			Cause:   err,
		}
	}

	for _, warning := range rendered.Warnings {
		s.logger.Warn("%s: %s", filename, warning)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &entities.ConversionError{
			Type:    entities.ErrorTypeFilesystem,
			Message: "artifact missing after render",
			Path:    path,
			Cause:   err,
		}
	}

	result := &entities.ConversionResult{
		Filename:    filename,
		Path:        path,
		SlideCount:  len(deck),
		Format:      req.Format,
		Locale:      req.Locale,
		FileSize:    info.Size(),
		Duration:    s.clock.Since(start),
		MediaSkip:   rendered.MediaSkipped,
		GeneratedAt: start,
	}

	s.logger.Info("wrote %s (%d slides, %d bytes)", filename, result.SlideCount, result.FileSize)
	return result, nil
}

// Preview parses and translates markup without rendering an artifact
func (s *ConversionService) Preview(ctx context.Context, req entities.ConversionRequest) (entities.Deck, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	return s.buildDeck(req)
}

// Cleanup purges artifacts older than the configured age
func (s *ConversionService) Cleanup(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cleaned, err := s.store.Purge(s.maxAge)
	if err != nil {
		return cleaned, &entities.ConversionError{
			Type:    entities.ErrorTypeFilesystem,
			Message: "cleanup failed",
			Path:    s.store.Dir(),
			Cause:   err,
		}
	}

	if cleaned > 0 {
		s.logger.Info("cleaned %d old files", cleaned)
	}
	return cleaned, nil
}

// SupportedFormats lists the formats a renderer is registered for,
// slideshow first
func (s *ConversionService) SupportedFormats() []entities.Format {
	formats := make([]entities.Format, 0, len(s.renderers))
	for f := range s.renderers {
		formats = append(formats, f)
	}
	entities.SortFormats(formats)
	return formats
}

// normalize fills defaults for empty enum fields. Empty markup is not
// rejected here: it parses to an empty deck like any other slide-less input.
func (s *ConversionService) normalize(req entities.ConversionRequest) (entities.ConversionRequest, error) {
	locale, err := entities.ParseLocale(string(req.Locale))
	if err != nil {
		return req, validationError(err)
	}
	format, err := entities.ParseFormat(string(req.Format))
	if err != nil {
		return req, validationError(err)
	}
	mode, err := entities.ParseMarkupMode(string(req.Mode))
	if err != nil {
		return req, validationError(err)
	}

	req.Locale = locale
	req.Format = format
	req.Mode = mode
	return req, nil
}

// buildDeck parses and translates; an empty deck is an error
func (s *ConversionService) buildDeck(req entities.ConversionRequest) (entities.Deck, error) {
	parser, ok := s.parsers[req.Mode]
	if !ok {
		return nil, &entities.ConversionError{
			Type:    entities.ErrorTypeValidation,
			Message: fmt.Sprintf("unsupported markup mode: %s", req.Mode),
		}
	}

	deck := parser.Parse(req.Markup)
	if len(deck) == 0 {
		return nil, &entities.ConversionError{
			Type:    entities.ErrorTypeEmptyDeck,
			Message: entities.MsgNoSlides,
		}
	}

	if s.translator != nil {
		deck = s.translator.Translate(deck, req.Locale)
	}
	return deck, nil
}

func validationError(err error) *entities.ConversionError {
	return &entities.ConversionError{
		Type:    entities.ErrorTypeValidation,
		Message: err.Error(),
	}
}

// Ensure ConversionService implements ports.ConversionService
var _ ports.ConversionService = (*ConversionService)(nil)
