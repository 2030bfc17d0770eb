package ports

import (
	"context"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

// RenderResult describes the artifact written by a DeckRenderer
type RenderResult struct {
	OutputPath    string
	PageCount     int
	MediaEmbedded int
	MediaSkipped  int
	Warnings      []string
}

// DeckRenderer renders a finalized slide sequence plus an optional media
// list into one artifact at outputPath
type DeckRenderer interface {
	Render(ctx context.Context, deck entities.Deck, media []string, outputPath string) (*RenderResult, error)
	Format() entities.Format
}

// PreviewRenderer renders a deck to HTML fragments, one per slide
type PreviewRenderer interface {
	RenderSlides(deck entities.Deck) ([]string, error)
}
