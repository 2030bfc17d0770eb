package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
)

// Slideshow layout, in EMU
const (
	pptxMargin       = emuPerInch / 2
	pptxBodyTop      = 1.6 * emuPerInch
	pptxBodyHeight   = 5.4 * emuPerInch
	pptxPictureX     = 6 * emuPerInch
	pptxPictureY     = 2 * emuPerInch
	pptxPictureW     = 3 * emuPerInch
	pptxPictureH     = 2 * emuPerInch
	pptxNarrowBodyW  = 5.3 * emuPerInch
	pptxAccentColour = "0066CC"
)

// PPTXRenderer writes a deck as an Office Open XML slideshow. Media rotate:
// the slide at 1-based position s gets media[(s-1) % len(media)].
type PPTXRenderer struct{}

// NewPPTXRenderer creates a new slideshow renderer
func NewPPTXRenderer() *PPTXRenderer {
	return &PPTXRenderer{}
}

// Format implements ports.DeckRenderer
func (r *PPTXRenderer) Format() entities.Format {
	return entities.FormatSlideshow
}

// Render implements ports.DeckRenderer
func (r *PPTXRenderer) Render(ctx context.Context, deck entities.Deck, media []string, outputPath string) (*ports.RenderResult, error) {
	if err := ensureOutputDirectory(outputPath); err != nil {
		return nil, err
	}

	pkg := newPPTXPackage()
	result := &ports.RenderResult{OutputPath: outputPath}
	title, content := deck.SplitTitle()

	if title != nil {
		pkg.Title = title.Title
		pkg.Author = title.Author
		pkg.Slides = append(pkg.Slides, titleSlide(title, len(media)))
	}

	embedded := make(map[string]*embeddedMedia)
	for _, slide := range content {
		if !slide.IsContent() {
			continue
		}
		position := len(pkg.Slides) + 1
		path, hasMedia := RotatingMedia(media, position)

		var picture *embeddedMedia
		if hasMedia {
			picture = r.embed(pkg, path, position, embedded, result)
		}
		pkg.Slides = append(pkg.Slides, contentSlide(slide, picture))
	}

	if err := writePackage(pkg, outputPath); err != nil {
		return nil, err
	}

	result.PageCount = len(pkg.Slides)
	return result, nil
}

// embeddedMedia is a media file already stored in the package
type embeddedMedia struct {
	part   string
	aspect float64
	err    error
}

// embed normalizes a media file once per render and reuses the stored part
// for later slides. Failures are recorded and the slide keeps no picture.
func (r *PPTXRenderer) embed(pkg *pptxPackage, path string, position int, cache map[string]*embeddedMedia, result *ports.RenderResult) *embeddedMedia {
	if !IsImage(path) {
		result.MediaSkipped++
		result.Warnings = append(result.Warnings, fmt.Sprintf("slide %d: skipped non-image media %s", position, filepath.Base(path)))
		return nil
	}

	m, ok := cache[path]
	if !ok {
		m = &embeddedMedia{}
		fitted, err := FitPicture(path)
		if err != nil {
			m.err = err
		} else {
			m.part = pkg.addMedia(fitted.PNG)
			m.aspect = fitted.Aspect()
		}
		cache[path] = m
	}

	if m.err != nil {
		result.MediaSkipped++
		result.Warnings = append(result.Warnings, fmt.Sprintf("slide %d: %v", position, m.err))
		return nil
	}

	result.MediaEmbedded++
	return m
}

func titleSlide(slide *entities.Slide, mediaCount int) pptxSlide {
	var subtitle []pptxParagraph
	if slide.HasAuthor && slide.Author != "" {
		subtitle = append(subtitle, pptxParagraph{Text: slide.Author, Size: 2400, Center: true})
	}
	if mediaCount > 0 {
		subtitle = append(subtitle, pptxParagraph{Text: mediaCaption(mediaCount), Size: 1800, Center: true})
	}

	shapes := []pptxShape{{
		ID:   2,
		Name: "Title 1",
		X:    pptxMargin,
		Y:    int64(2.5 * emuPerInch),
		W:    slideWidthEMU - 2*pptxMargin,
		H:    int64(1.5 * emuPerInch),
		Paragraphs: []pptxParagraph{
			{Text: slide.Title, Size: 4400, Bold: true, Center: true, Color: pptxAccentColour},
		},
	}}
	if len(subtitle) > 0 {
		shapes = append(shapes, pptxShape{
			ID:         3,
			Name:       "Subtitle 2",
			X:          emuPerInch,
			Y:          int64(4.2 * emuPerInch),
			W:          slideWidthEMU - 2*emuPerInch,
			H:          int64(1.5 * emuPerInch),
			Paragraphs: subtitle,
		})
	}

	return pptxSlide{Shapes: shapes}
}

func contentSlide(slide entities.Slide, picture *embeddedMedia) pptxSlide {
	bodyWidth := int64(slideWidthEMU - 2*pptxMargin)
	if picture != nil {
		bodyWidth = pptxNarrowBodyW
	}

	// bullets and text lines share one list style at level 0
	var body []pptxParagraph
	for _, item := range bodyLines(slide) {
		body = append(body, pptxParagraph{Text: item.Text, Size: 2000, Bullet: true})
	}

	out := pptxSlide{
		Shapes: []pptxShape{
			{
				ID:   2,
				Name: "Title 1",
				X:    pptxMargin,
				Y:    int64(0.3 * emuPerInch),
				W:    slideWidthEMU - 2*pptxMargin,
				H:    int64(1.2 * emuPerInch),
				Paragraphs: []pptxParagraph{
					{Text: slide.Title, Size: 3200, Bold: true, Color: pptxAccentColour},
				},
			},
			{
				ID:         3,
				Name:       "Content 2",
				X:          pptxMargin,
				Y:          pptxBodyTop,
				W:          bodyWidth,
				H:          pptxBodyHeight,
				Paragraphs: body,
			},
		},
	}

	if picture != nil {
		x, y, w, h := placeInBox(picture.aspect, pptxPictureX, pptxPictureY, pptxPictureW, pptxPictureH)
		out.Pictures = []pptxPicture{{
			ID:    4,
			Name:  "Picture 3",
			RelID: "rId2",
			X:     int64(x),
			Y:     int64(y),
			W:     int64(w),
			H:     int64(h),
		}}
		out.Media = []pptxMediaRel{{RelID: "rId2", Part: picture.part}}
	}

	return out
}

// writePackage writes the zip to outputPath, removing it on failure
func writePackage(pkg *pptxPackage, outputPath string) error {
	f, err := os.Create(filepath.Clean(outputPath)) // #nosec G304 - path validated by ensureOutputDirectory
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}

	if _, err := pkg.WriteTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(outputPath)
		return fmt.Errorf("writing slideshow: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(outputPath)
		return fmt.Errorf("closing %s: %w", outputPath, err)
	}
	return nil
}

// Ensure PPTXRenderer implements ports.DeckRenderer
var _ ports.DeckRenderer = (*PPTXRenderer)(nil)
