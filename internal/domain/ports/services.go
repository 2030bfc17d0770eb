package ports

import (
	"context"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

// ConversionService runs the parse, translate and render chain
type ConversionService interface {
	// Convert turns one request into a written artifact
	Convert(ctx context.Context, req entities.ConversionRequest) (*entities.ConversionResult, error)

	// Preview parses and translates markup without rendering an artifact
	Preview(ctx context.Context, req entities.ConversionRequest) (entities.Deck, error)

	// Cleanup purges artifacts older than the configured age
	Cleanup(ctx context.Context) (int, error)

	// SupportedFormats lists the formats a renderer is registered for
	SupportedFormats() []entities.Format
}
