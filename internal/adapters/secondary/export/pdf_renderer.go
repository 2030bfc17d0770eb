package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
)

// Document layout in millimetres on A4 portrait
const (
	pdfMargin        = 20.0
	pdfPictureWidth  = 101.6 // 4in
	pdfPictureHeight = 76.2  // 3in
	pdfUTF8Family    = "deck"
	pdfCoreFamily    = "Helvetica"
)

// Heading colour (#0066CC)
var accentColor = [3]int{0, 102, 204}

// PDFRenderer writes a deck as a paginated A4 document. Every content
// slide starts a new page; media are placed positionally, so slide i gets
// media[i] and nothing once the list is exhausted.
type PDFRenderer struct {
	// fontFile is an optional TrueType font. The core Helvetica font only
	// covers cp1252, so decks with Cyrillic titles need one.
	fontFile string
}

// NewPDFRenderer creates a new document renderer
func NewPDFRenderer(fontFile string) *PDFRenderer {
	return &PDFRenderer{fontFile: fontFile}
}

// Format implements ports.DeckRenderer
func (r *PDFRenderer) Format() entities.Format {
	return entities.FormatDocument
}

// Render implements ports.DeckRenderer
func (r *PDFRenderer) Render(ctx context.Context, deck entities.Deck, media []string, outputPath string) (*ports.RenderResult, error) {
	if err := ensureOutputDirectory(outputPath); err != nil {
		return nil, err
	}

	doc, err := r.newDocument()
	if err != nil {
		return nil, err
	}

	result := &ports.RenderResult{OutputPath: outputPath}
	title, content := deck.SplitTitle()

	if title != nil {
		doc.titlePage(title, len(media))
	}

	index := 0
	for _, slide := range content {
		if !slide.IsContent() {
			continue
		}
		doc.contentPage(slide)
		if path, ok := PositionalMedia(media, index); ok {
			doc.picture(path, index, result)
		}
		index++
	}

	if doc.pdf.Err() {
		return nil, fmt.Errorf("building PDF: %w", doc.pdf.Error())
	}

	result.PageCount = doc.pdf.PageCount()

	if err := doc.pdf.OutputFileAndClose(outputPath); err != nil {
		return nil, fmt.Errorf("saving PDF to %s: %w", outputPath, err)
	}

	return result, nil
}

// pdfDocument bundles a gofpdf document with its font setup
type pdfDocument struct {
	pdf    *gofpdf.Fpdf
	family string
	tr     func(string) string
}

func (r *PDFRenderer) newDocument() (*pdfDocument, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetCreator("texdeck", true)

	doc := &pdfDocument{pdf: pdf, family: pdfCoreFamily}

	if r.fontFile != "" {
		if _, err := os.Stat(r.fontFile); err != nil {
			return nil, fmt.Errorf("loading PDF font: %w", err)
		}
		pdf.AddUTF8Font(pdfUTF8Family, "", r.fontFile)
		pdf.AddUTF8Font(pdfUTF8Family, "B", r.fontFile)
		if pdf.Err() {
			return nil, fmt.Errorf("loading PDF font %s: %w", r.fontFile, pdf.Error())
		}
		doc.family = pdfUTF8Family
		doc.tr = func(s string) string { return s }
	} else {
		doc.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	return doc, nil
}

func (d *pdfDocument) titlePage(slide *entities.Slide, mediaCount int) {
	d.pdf.SetTitle(slide.Title, true)
	if slide.HasAuthor {
		d.pdf.SetAuthor(slide.Author, true)
	}

	d.pdf.AddPage()
	d.pdf.Ln(40)

	d.pdf.SetFont(d.family, "B", 24)
	d.pdf.SetTextColor(accentColor[0], accentColor[1], accentColor[2])
	d.pdf.MultiCell(0, 12, d.tr(slide.Title), "", "C", false)

	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.SetFont(d.family, "", 12)

	if slide.HasAuthor && slide.Author != "" {
		d.pdf.Ln(12)
		d.pdf.MultiCell(0, 8, d.tr(slide.Author), "", "C", false)
	}

	if mediaCount > 0 {
		d.pdf.Ln(8)
		d.pdf.MultiCell(0, 8, d.tr(mediaCaption(mediaCount)), "", "C", false)
	}
}

func (d *pdfDocument) contentPage(slide entities.Slide) {
	d.pdf.AddPage()

	d.pdf.SetFont(d.family, "B", 18)
	d.pdf.SetTextColor(accentColor[0], accentColor[1], accentColor[2])
	d.pdf.MultiCell(0, 10, d.tr(slide.Title), "", "L", false)
	d.pdf.Ln(6)

	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.SetFont(d.family, "", 12)

	for _, item := range bodyLines(slide) {
		if item.IsBullet() {
			d.pdf.SetX(pdfMargin + 7)
			d.pdf.MultiCell(0, 7, d.tr("• "+item.Text), "", "L", false)
			d.pdf.Ln(1)
			continue
		}
		d.pdf.MultiCell(0, 7, d.tr(item.Text), "", "L", false)
		d.pdf.Ln(2)
	}
}

// picture embeds one media file below the body. Failures are recorded on
// the result and never abort the document.
func (d *pdfDocument) picture(path string, index int, result *ports.RenderResult) {
	if !IsImage(path) {
		result.MediaSkipped++
		result.Warnings = append(result.Warnings, fmt.Sprintf("slide %d: skipped non-image media %s", index+1, filepath.Base(path)))
		return
	}

	fitted, err := FitPicture(path)
	if err != nil {
		result.MediaSkipped++
		result.Warnings = append(result.Warnings, fmt.Sprintf("slide %d: %v", index+1, err))
		return
	}

	name := fmt.Sprintf("media-%d", index)
	opts := gofpdf.ImageOptions{ImageType: "png"}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(fitted.PNG))
	if d.pdf.Err() {
		result.MediaSkipped++
		result.Warnings = append(result.Warnings, fmt.Sprintf("slide %d: %v", index+1, d.pdf.Error()))
		d.pdf.ClearError()
		return
	}

	d.pdf.Ln(5)
	x, _, w, h := placeInBox(fitted.Aspect(), pdfMargin, 0, pdfPictureWidth, pdfPictureHeight)
	d.pdf.ImageOptions(name, x, -1, w, h, true, opts, 0, "")
	result.MediaEmbedded++
}

// mediaCaption is the title surface line shown when media were supplied
func mediaCaption(n int) string {
	return fmt.Sprintf("%d media files included", n)
}

// Ensure PDFRenderer implements ports.DeckRenderer
var _ ports.DeckRenderer = (*PDFRenderer)(nil)
