package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

const demoMarkup = `\begin{frame}\frametitle{Intro}\begin{itemize}\item one\end{itemize}\end{frame}`

func jsonRequest(t *testing.T, path string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func demoResult() *entities.ConversionResult {
	return &entities.ConversionResult{
		Filename:   "Deck_Russian_20240102_030405.pdf",
		SlideCount: 2,
		Format:     entities.FormatDocument,
		Locale:     entities.LocaleRussian,
		FileSize:   1234,
		Duration:   time.Millisecond,
	}
}

func demoDeck() entities.Deck {
	title := entities.NewTitleSlide("Demo <script>alert(1)</script>")
	title.SetAuthor("Ann")
	return entities.Deck{
		title,
		entities.NewContentSlide("Intro", []entities.ContentItem{entities.Bullet("one")}),
	}
}

func TestHandleConvert(t *testing.T) {
	t.Run("converts with legacy client keys", func(t *testing.T) {
		f := newServerFixture(t)
		f.conv.On("Convert", mock.Anything, mock.MatchedBy(func(req entities.ConversionRequest) bool {
			return req.Markup == demoMarkup &&
				req.Locale == entities.LocaleRussian &&
				req.Format == "pdf" &&
				req.Media == nil
		})).Return(demoResult(), nil).Once()

		w := f.do(jsonRequest(t, "/convert", map[string]string{
			"latex":    demoMarkup,
			"language": "Russian",
			"format":   "PDF",
		}))

		require.Equal(t, http.StatusOK, w.Code)
		var resp ConvertResponse
		decodeBody(t, w, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, "Deck_Russian_20240102_030405.pdf", resp.Filename)
		assert.Equal(t, 2, resp.SlideCount)
		assert.Equal(t, "/download/Deck_Russian_20240102_030405.pdf", resp.DownloadURL)
		assert.Empty(t, resp.Error)
		f.conv.AssertExpectations(t)
	})

	failures := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "invalid request",
			err:     &entities.ConversionError{Type: entities.ErrorTypeValidation, Message: "unsupported markup mode: memoir"},
			status:  http.StatusBadRequest,
			message: "unsupported markup mode: memoir",
		},
		{
			name:    "no slides",
			err:     &entities.ConversionError{Type: entities.ErrorTypeEmptyDeck, Message: entities.MsgNoSlides},
			status:  http.StatusBadRequest,
			message: "No slides found in LaTeX code",
		},
		{
			name:    "render failure",
			err:     &entities.ConversionError{Type: entities.ErrorTypeRender, Message: "creating slideshow", Cause: errors.New("disk full")},
			status:  http.StatusInternalServerError,
			message: "creating slideshow: disk full",
		},
		{
			name:    "untyped error is not exposed",
			err:     errors.New("boom at /secret/path"),
			status:  http.StatusInternalServerError,
			message: "Internal server error",
		},
	}

	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			f := newServerFixture(t)
			f.conv.On("Convert", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			w := f.do(jsonRequest(t, "/convert", map[string]string{"markup": "x"}))

			assert.Equal(t, tc.status, w.Code)
			var resp ConvertResponse
			decodeBody(t, w, &resp)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.message, resp.Error)
		})
	}

	t.Run("unsupported format is rejected before conversion", func(t *testing.T) {
		f := newServerFixture(t)

		w := f.do(jsonRequest(t, "/convert", map[string]string{"markup": demoMarkup, "format": "docx"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ConvertResponse
		decodeBody(t, w, &resp)
		assert.Contains(t, resp.Error, "format")
		f.conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything)
	})

	t.Run("malformed json", func(t *testing.T) {
		f := newServerFixture(t)
		req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")

		w := f.do(req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ConvertResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, "Invalid request body", resp.Error)
	})

	t.Run("body over the upload limit", func(t *testing.T) {
		f := newServerFixture(t)
		big := strings.Repeat("x", 2<<20)

		w := f.do(jsonRequest(t, "/convert", map[string]string{"markup": big}))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, data := range files {
		name := field + ".png"
		if field == "tex_file" {
			name = "slides.tex"
		}
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleUpload(t *testing.T) {
	for _, path := range []string{"/convert/upload", "/convert"} {
		t.Run("multipart form on "+path, func(t *testing.T) {
			f := newServerFixture(t)

			var got entities.ConversionRequest
			f.conv.On("Preview", mock.Anything, mock.MatchedBy(func(req entities.ConversionRequest) bool {
				return req.Markup == demoMarkup && req.Media == nil
			})).Return(demoDeck(), nil).Once()
			f.conv.On("Convert", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { got = args.Get(1).(entities.ConversionRequest) }).
				Return(demoResult(), nil).Once()

			req := multipartRequest(t, path,
				map[string]string{"language": "english", "format": "slideshow", "media_type_0": "image"},
				map[string][]byte{
					"tex_file": []byte(demoMarkup),
					"media_10": []byte("second"),
					"media_2":  []byte("first"),
				})

			w := f.do(req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, demoMarkup, got.Markup)
			assert.Equal(t, entities.LocaleEnglish, got.Locale)
			require.Len(t, got.Media, 2)
			assert.Equal(t, "media_2.png", filepath.Base(got.Media[0]))
			assert.Equal(t, "media_10.png", filepath.Base(got.Media[1]))

			data, err := os.ReadFile(got.Media[0])
			require.NoError(t, err)
			assert.Equal(t, "first", string(data))
		})
	}

	t.Run("missing tex file reaches the service as empty markup", func(t *testing.T) {
		f := newServerFixture(t)
		f.conv.On("Convert", mock.Anything, mock.MatchedBy(func(req entities.ConversionRequest) bool {
			return req.Markup == ""
		})).Return(nil, &entities.ConversionError{Type: entities.ErrorTypeEmptyDeck, Message: entities.MsgNoSlides}).Once()

		w := f.do(multipartRequest(t, "/convert/upload", map[string]string{"language": "english"}, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ConvertResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, entities.MsgNoSlides, resp.Error)
	})

	t.Run("media are not stored when the markup has no slides", func(t *testing.T) {
		f := newServerFixture(t)
		f.conv.On("Preview", mock.Anything, mock.Anything).
			Return(nil, &entities.ConversionError{Type: entities.ErrorTypeEmptyDeck, Message: entities.MsgNoSlides}).Once()

		w := f.do(multipartRequest(t, "/convert/upload",
			map[string]string{"language": "english"},
			map[string][]byte{
				"tex_file": []byte("no frames here"),
				"media_1":  []byte("image"),
			}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ConvertResponse
		decodeBody(t, w, &resp)
		assert.False(t, resp.Success)
		assert.Equal(t, entities.MsgNoSlides, resp.Error)
		assert.NoFileExists(t, filepath.Join(f.store.MediaDir(), "media_1.png"))
		f.conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything)
	})

	t.Run("unsupported language", func(t *testing.T) {
		f := newServerFixture(t)

		w := f.do(multipartRequest(t, "/convert/upload",
			map[string]string{"language": "german"},
			map[string][]byte{"tex_file": []byte(demoMarkup)}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything)
	})
}

func TestHandleDownload(t *testing.T) {
	f := newServerFixture(t)
	name := "Deck_English_20240102_030405.pptx"
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte("PK"), 0600))

	t.Run("serves artifact as attachment", func(t *testing.T) {
		w := f.do(httptest.NewRequest(http.MethodGet, "/download/"+name, nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "PK", w.Body.String())
		assert.Equal(t, entities.FormatSlideshow.MimeType(), w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, w.Header().Get("Content-Disposition"), name)
	})

	t.Run("missing file", func(t *testing.T) {
		w := f.do(httptest.NewRequest(http.MethodGet, "/download/missing.pdf", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"File not found"}`, w.Body.String())
	})

	t.Run("media directory is not an artifact", func(t *testing.T) {
		w := f.do(httptest.NewRequest(http.MethodGet, "/download/media", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleCleanup(t *testing.T) {
	t.Run("reports purged count", func(t *testing.T) {
		f := newServerFixture(t)
		f.conv.On("Cleanup", mock.Anything).Return(3, nil).Once()

		w := f.do(httptest.NewRequest(http.MethodGet, "/cleanup", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"cleaned":3,"message":"Cleaned 3 old files"}`, w.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		f := newServerFixture(t)
		f.conv.On("Cleanup", mock.Anything).Return(0, errors.New("permission denied")).Once()

		w := f.do(httptest.NewRequest(http.MethodPost, "/cleanup", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandlePreview(t *testing.T) {
	t.Run("returns sanitized slides", func(t *testing.T) {
		f := newServerFixture(t)
		f.conv.On("Preview", mock.Anything, mock.MatchedBy(func(req entities.ConversionRequest) bool {
			return req.Mode == entities.ModeArticle
		})).Return(demoDeck(), nil).Once()

		w := f.do(jsonRequest(t, "/api/preview", map[string]string{"markup": demoMarkup, "mode": "article"}))

		require.Equal(t, http.StatusOK, w.Code)
		var resp PreviewResponse
		decodeBody(t, w, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, "2 slides (1 content)", resp.Summary)
		require.Len(t, resp.Slides, 2)
		assert.Equal(t, "Ann", resp.Slides[0].Author)
		assert.Contains(t, resp.Slides[0].HTML, "<h1")
		assert.NotContains(t, resp.Slides[0].HTML, "<script")
		assert.Contains(t, resp.Slides[1].HTML, "<li>one</li>")
	})

	t.Run("empty deck", func(t *testing.T) {
		f := newServerFixture(t)
		f.conv.On("Preview", mock.Anything, mock.Anything).
			Return(nil, &entities.ConversionError{Type: entities.ErrorTypeEmptyDeck, Message: entities.MsgNoSlides}).Once()

		w := f.do(jsonRequest(t, "/api/preview", map[string]string{"markup": "plain text"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp PreviewResponse
		decodeBody(t, w, &resp)
		assert.False(t, resp.Success)
		assert.Equal(t, entities.MsgNoSlides, resp.Error)
	})

	t.Run("html page from a form post", func(t *testing.T) {
		f := newServerFixture(t)
		f.conv.On("Preview", mock.Anything, mock.Anything).Return(demoDeck(), nil).Once()

		form := url.Values{"latex": {demoMarkup}, "language": {"english"}}
		req := httptest.NewRequest(http.MethodPost, "/preview", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		w := f.do(req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "Intro")
		assert.NotContains(t, w.Body.String(), "<script>alert")
	})
}

func TestHandleFormats(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/formats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp FormatsResponse
	decodeBody(t, w, &resp)
	require.Len(t, resp.Formats, 2)
	assert.Equal(t, "pptx", resp.Formats[0].Extension)
	assert.Equal(t, "application/pdf", resp.Formats[1].MimeType)
	assert.Equal(t, []entities.Locale{entities.LocaleEnglish, entities.LocaleRussian}, resp.Locales)
	assert.Len(t, resp.Modes, 2)
}

func TestHandleIndex(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), indexTitle)
	assert.Contains(t, w.Body.String(), "/convert/upload")
}

func TestConvertRequest_Validate(t *testing.T) {
	tests := []struct {
		name  string
		req   ConvertRequest
		valid bool
	}{
		{"defaults", ConvertRequest{}, true},
		{"aliases", ConvertRequest{Format: " PPTX ", Language: "Russian"}, true},
		{"article mode", ConvertRequest{Mode: "Article"}, true},
		{"bad locale", ConvertRequest{Locale: "french"}, false},
		{"bad mode", ConvertRequest{Mode: "markdown"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.normalize()
			err := tt.req.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestHandleMetrics(t *testing.T) {
	f := newServerFixture(t)
	f.conv.On("Convert", mock.Anything, mock.Anything).Return(demoResult(), nil).Once()
	f.conv.On("Convert", mock.Anything, mock.Anything).
		Return(nil, &entities.ConversionError{Type: entities.ErrorTypeEmptyDeck, Message: entities.MsgNoSlides}).Once()
	f.conv.On("Cleanup", mock.Anything).Return(2, nil).Once()

	f.do(jsonRequest(t, "/convert", map[string]string{"markup": demoMarkup}))
	f.do(jsonRequest(t, "/convert", map[string]string{"markup": "plain text"}))
	f.do(httptest.NewRequest(http.MethodPost, "/cleanup", nil))

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var snap struct {
		Conversions map[string]int64 `json:"conversions"`
		Failures    int64            `json:"failures"`
		Requests    int64            `json:"http_requests"`
		Cleaned     int64            `json:"files_cleaned"`
	}
	decodeBody(t, w, &snap)
	assert.Equal(t, map[string]int64{"document": 1}, snap.Conversions)
	assert.Equal(t, int64(1), snap.Failures)
	assert.Equal(t, int64(3), snap.Requests)
	assert.Equal(t, int64(2), snap.Cleaned)
}
