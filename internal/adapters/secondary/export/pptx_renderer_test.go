package export

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

// readPackage returns the parts of a written pptx keyed by name
func readPackage(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	parts := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		parts[f.Name] = string(data)
	}
	return parts
}

func mediaParts(parts map[string]string) []string {
	var out []string
	for name := range parts {
		if strings.HasPrefix(name, "ppt/media/") {
			out = append(out, name)
		}
	}
	return out
}

func TestPPTXRenderer_Render(t *testing.T) {
	ctx := context.Background()
	renderer := NewPPTXRenderer()

	t.Run("title and content slides", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "deck.pptx")
		deck := scenarioDeck()
		deck[0].SetAuthor("Ann Lee")

		result, err := renderer.Render(ctx, deck, nil, out)
		require.NoError(t, err)
		assert.Equal(t, out, result.OutputPath)
		assert.Equal(t, 2, result.PageCount)
		assert.Zero(t, result.MediaEmbedded)

		parts := readPackage(t, out)
		for _, name := range []string{
			"[Content_Types].xml",
			"_rels/.rels",
			"ppt/presentation.xml",
			"ppt/_rels/presentation.xml.rels",
			"ppt/slideMasters/slideMaster1.xml",
			"ppt/slideLayouts/slideLayout1.xml",
			"ppt/theme/theme1.xml",
			"ppt/slides/slide1.xml",
			"ppt/slides/slide2.xml",
		} {
			assert.Contains(t, parts, name)
		}
		assert.NotContains(t, parts, "ppt/slides/slide3.xml")

		title := parts["ppt/slides/slide1.xml"]
		assert.Contains(t, title, "<a:t>Demo</a:t>")
		assert.Contains(t, title, "<a:t>Ann Lee</a:t>")
		assert.NotContains(t, title, "media files included")

		content := parts["ppt/slides/slide2.xml"]
		assert.Contains(t, content, "<a:t>Intro</a:t>")
		assert.Less(t, strings.Index(content, "<a:t>First</a:t>"), strings.Index(content, "<a:t>Second</a:t>"))
		assert.Equal(t, 2, strings.Count(content, "<a:buChar"))

		assert.Contains(t, parts["ppt/presentation.xml"], `<p:sldId id="257" r:id="rId4"/>`)
		assert.Contains(t, parts["[Content_Types].xml"], "/ppt/slides/slide2.xml")
		assert.Contains(t, parts["docProps/core.xml"], "<dc:title>Demo</dc:title>")
	})

	t.Run("zero media never embeds", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "deck.pptx")
		result, err := renderer.Render(ctx, scenarioDeck(), []string{}, out)
		require.NoError(t, err)
		assert.Zero(t, result.MediaEmbedded)
		assert.Zero(t, result.MediaSkipped)

		parts := readPackage(t, out)
		assert.Empty(t, mediaParts(parts))
		assert.NotContains(t, parts["ppt/slides/slide2.xml"], "<p:pic>")
	})

	t.Run("media rotate counting the title slide", func(t *testing.T) {
		dir := t.TempDir()
		a := writePNG(t, dir, "a.png", 30, 20)
		b := writePNG(t, dir, "b.png", 20, 30)
		out := filepath.Join(dir, "deck.pptx")

		deck := entities.Deck{
			entities.NewTitleSlide("T"),
			entities.NewContentSlide("S1", nil),
			entities.NewContentSlide("S2", nil),
			entities.NewContentSlide("S3", nil),
		}

		result, err := renderer.Render(ctx, deck, []string{a, b}, out)
		require.NoError(t, err)
		assert.Equal(t, 4, result.PageCount)
		assert.Equal(t, 3, result.MediaEmbedded)

		parts := readPackage(t, out)
		// b is met first (position 2), then a, then b again
		assert.Contains(t, parts["ppt/slides/_rels/slide2.xml.rels"], "../media/image1.png")
		assert.Contains(t, parts["ppt/slides/_rels/slide3.xml.rels"], "../media/image2.png")
		assert.Contains(t, parts["ppt/slides/_rels/slide4.xml.rels"], "../media/image1.png")
		assert.Len(t, mediaParts(parts), 2)

		assert.Contains(t, parts["ppt/slides/slide1.xml"], "2 media files included")
		assert.Contains(t, parts["ppt/slides/slide2.xml"], `<a:blip r:embed="rId2"/>`)
	})

	t.Run("without title slide rotation starts at the first media", func(t *testing.T) {
		dir := t.TempDir()
		a := writePNG(t, dir, "a.png", 10, 10)
		out := filepath.Join(dir, "deck.pptx")

		deck := entities.Deck{entities.NewContentSlide("Only", nil)}
		result, err := renderer.Render(ctx, deck, []string{a, filepath.Join(dir, "clip.mp4")}, out)
		require.NoError(t, err)
		assert.Equal(t, 1, result.MediaEmbedded)
		assert.Zero(t, result.MediaSkipped)
	})

	t.Run("non image and broken media are skipped", func(t *testing.T) {
		dir := t.TempDir()
		broken := filepath.Join(dir, "broken.png")
		require.NoError(t, os.WriteFile(broken, []byte("junk"), 0600))
		out := filepath.Join(dir, "deck.pptx")

		deck := entities.Deck{
			entities.NewTitleSlide("T"),
			entities.NewContentSlide("S1", nil),
			entities.NewContentSlide("S2", nil),
		}

		result, err := renderer.Render(ctx, deck, []string{broken, filepath.Join(dir, "clip.mp4")}, out)
		require.NoError(t, err)
		assert.Zero(t, result.MediaEmbedded)
		assert.Equal(t, 2, result.MediaSkipped)
		assert.Len(t, result.Warnings, 2)

		parts := readPackage(t, out)
		assert.Empty(t, mediaParts(parts))
	})

	t.Run("empty frame renders an empty body", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "deck.pptx")
		deck := entities.Deck{entities.NewContentSlide("Empty", nil)}

		_, err := renderer.Render(ctx, deck, nil, out)
		require.NoError(t, err)

		slide := readPackage(t, out)["ppt/slides/slide1.xml"]
		assert.Contains(t, slide, `name="Content 2"`)
		assert.NotContains(t, slide, "<a:buChar")
	})

	t.Run("bullet and text items share paragraph properties", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "deck.pptx")
		deck := entities.Deck{entities.NewContentSlide("Mixed", []entities.ContentItem{
			entities.Bullet("B1"),
			entities.Text("T1"),
		})}

		_, err := renderer.Render(ctx, deck, nil, out)
		require.NoError(t, err)

		slide := readPackage(t, out)["ppt/slides/slide1.xml"]
		paragraphProps := func(text string) string {
			re := regexp.MustCompile(`<a:p>(<a:pPr[^\n]*?</a:pPr>)<a:r><a:rPr[^\n]*?<a:t>` + text + `</a:t>`)
			m := re.FindStringSubmatch(slide)
			require.Len(t, m, 2, text)
			return m[1]
		}

		bullet, text := paragraphProps("B1"), paragraphProps("T1")
		assert.Equal(t, bullet, text)
		assert.Contains(t, bullet, `lvl="0"`)
		assert.Less(t, strings.Index(slide, "B1"), strings.Index(slide, "T1"))
	})

	t.Run("text is escaped", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "deck.pptx")
		deck := entities.Deck{entities.NewContentSlide("A & B <C>", []entities.ContentItem{entities.Text(`"quoted"`)})}

		_, err := renderer.Render(ctx, deck, nil, out)
		require.NoError(t, err)

		slide := readPackage(t, out)["ppt/slides/slide1.xml"]
		assert.Contains(t, slide, "A &amp; B &lt;C&gt;")
		assert.NotContains(t, slide, "<C>")
	})

	t.Run("raw text truncated", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "deck.pptx")
		slide := entities.NewContentSlide("Raw", nil)
		slide.Raw = strings.Repeat("x", 250)

		_, err := renderer.Render(ctx, entities.Deck{slide}, nil, out)
		require.NoError(t, err)

		xml := readPackage(t, out)["ppt/slides/slide1.xml"]
		assert.Contains(t, xml, strings.Repeat("x", RawLimit)+"...")
		assert.NotContains(t, xml, strings.Repeat("x", RawLimit+1))
	})

	t.Run("invalid output path", func(t *testing.T) {
		_, err := renderer.Render(ctx, scenarioDeck(), nil, "../outside.pptx")
		assert.Error(t, err)
	})

	t.Run("creates missing output directory", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "nested", "dir", "deck.pptx")
		_, err := renderer.Render(ctx, scenarioDeck(), nil, out)
		require.NoError(t, err)
		assert.FileExists(t, out)
	})
}

func TestPPTXRenderer_Format(t *testing.T) {
	assert.Equal(t, entities.FormatSlideshow, NewPPTXRenderer().Format())
}
