package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"

	"github.com/fredcamaral/texdeck/internal/adapters/secondary/renderer"
	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
)

const indexTitle = "LaTeX to Presentation Converter"

// ConvertRequest is the body accepted by /convert, /api/preview and
// /preview. The legacy client keys latex and language are accepted as
// aliases for markup and locale.
type ConvertRequest struct {
	Markup   string `json:"markup"`
	Latex    string `json:"latex"`
	Locale   string `json:"locale"`
	Language string `json:"language"`
	Format   string `json:"format"`
	Mode     string `json:"mode"`
}

// normalize folds aliases and lowercases the enum fields
func (r *ConvertRequest) normalize() {
	if r.Markup == "" {
		r.Markup = r.Latex
	}
	if r.Locale == "" {
		r.Locale = r.Language
	}
	r.Latex, r.Language = "", ""
	r.Locale = strings.ToLower(strings.TrimSpace(r.Locale))
	r.Format = strings.ToLower(strings.TrimSpace(r.Format))
	r.Mode = strings.ToLower(strings.TrimSpace(r.Mode))
}

// Validate checks the enum fields. Empty values fall back to defaults and
// empty markup is reported by the conversion service as an empty deck.
func (r ConvertRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Locale, validation.In(string(entities.LocaleEnglish), string(entities.LocaleRussian))),
		validation.Field(&r.Format, validation.In(
			string(entities.FormatSlideshow), string(entities.FormatDocument), "pptx", "pdf")),
		validation.Field(&r.Mode, validation.In(string(entities.ModeBeamer), string(entities.ModeArticle))),
	)
}

func (r ConvertRequest) toEntity(media []string) entities.ConversionRequest {
	return entities.ConversionRequest{
		Markup: r.Markup,
		Locale: entities.Locale(r.Locale),
		Format: entities.Format(r.Format),
		Mode:   entities.MarkupMode(r.Mode),
		Media:  media,
	}
}

// ConvertResponse is returned by the conversion endpoints
type ConvertResponse struct {
	Success      bool            `json:"success"`
	Filename     string          `json:"filename,omitempty"`
	SlideCount   int             `json:"slideCount,omitempty"`
	DownloadURL  string          `json:"download_url,omitempty"`
	Format       entities.Format `json:"format,omitempty"`
	Locale       entities.Locale `json:"locale,omitempty"`
	FileSize     int64           `json:"file_size,omitempty"`
	MediaSkipped int             `json:"media_skipped,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// CleanupResponse is returned by /cleanup
type CleanupResponse struct {
	Cleaned int    `json:"cleaned"`
	Message string `json:"message"`
}

// PreviewSlide is one slide of a preview response
type PreviewSlide struct {
	Index  int                `json:"index"`
	Type   entities.SlideKind `json:"type"`
	Title  string             `json:"title"`
	Author string             `json:"author,omitempty"`
	HTML   string             `json:"html"`
}

// PreviewResponse is returned by /api/preview
type PreviewResponse struct {
	Success bool           `json:"success"`
	Summary string         `json:"summary,omitempty"`
	Slides  []PreviewSlide `json:"slides,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// FormatInfo describes one output format
type FormatInfo struct {
	Name      entities.Format `json:"name"`
	Extension string          `json:"extension"`
	MimeType  string          `json:"mime_type"`
}

// FormatsResponse is returned by /api/formats
type FormatsResponse struct {
	Formats []FormatInfo          `json:"formats"`
	Locales []entities.Locale     `json:"locales"`
	Modes   []entities.MarkupMode `json:"modes"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

var supportedLocales = []entities.Locale{entities.LocaleEnglish, entities.LocaleRussian}

// handleConvert converts a JSON request. Multipart bodies are handed to
// the upload handler so the legacy browser client can post here too.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if isMultipart(r) {
		s.handleUpload(w, r)
		return
	}

	req, err := s.decodeRequest(w, r)
	if err != nil {
		s.conversionFailed(w, requestStatus(err), requestMessage(err))
		return
	}

	s.convert(w, r, req, nil)
}

// handleUpload converts a multipart form: tex_file (or a latex field),
// language, format, mode and media_N files
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.config.Output.GetMaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.conversionFailed(w, requestStatus(err), requestMessage(err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := ConvertRequest{
		Latex:    r.FormValue("latex"),
		Language: r.FormValue("language"),
		Locale:   r.FormValue("locale"),
		Format:   r.FormValue("format"),
		Mode:     r.FormValue("mode"),
	}

	if file, _, err := r.FormFile("tex_file"); err == nil {
		data, readErr := io.ReadAll(file)
		_ = file.Close()
		if readErr != nil {
			s.conversionFailed(w, http.StatusBadRequest, "Could not read tex_file")
			return
		}
		req.Markup = string(data)
	}

	req.normalize()
	if err := req.Validate(); err != nil {
		s.conversionFailed(w, http.StatusBadRequest, err.Error())
		return
	}

	// media are only written once the markup is known to yield slides
	if hasMediaUploads(r) {
		if _, err := s.converter.Preview(r.Context(), req.toEntity(nil)); err != nil {
			s.failConversion(w, r, req, err)
			return
		}
	}

	media := s.saveUploadedMedia(r)
	s.convert(w, r, req, media)
}

func hasMediaUploads(r *http.Request) bool {
	for field := range r.MultipartForm.File {
		if strings.HasPrefix(field, "media_") {
			return true
		}
	}
	return false
}

// saveUploadedMedia stores media_N files in N order. Files that cannot be
// stored are logged and skipped.
func (s *Server) saveUploadedMedia(r *http.Request) []string {
	type upload struct {
		index int
		field string
	}

	var uploads []upload
	for field := range r.MultipartForm.File {
		n, err := strconv.Atoi(strings.TrimPrefix(field, "media_"))
		if !strings.HasPrefix(field, "media_") || err != nil {
			continue
		}
		uploads = append(uploads, upload{index: n, field: field})
	}
	sort.Slice(uploads, func(i, j int) bool { return uploads[i].index < uploads[j].index })

	var paths []string
	for _, u := range uploads {
		for _, header := range r.MultipartForm.File[u.field] {
			f, err := header.Open()
			if err != nil {
				s.logger.Warn("Skipping media %s: %v", header.Filename, err)
				continue
			}
			path, err := s.store.SaveMedia(header.Filename, f)
			_ = f.Close()
			if err != nil {
				s.logger.Warn("Skipping media %s: %v", header.Filename, err)
				continue
			}
			paths = append(paths, path)
		}
	}
	return paths
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request, req ConvertRequest, media []string) {
	result, err := s.converter.Convert(r.Context(), req.toEntity(media))
	if err != nil {
		s.failConversion(w, r, req, err)
		return
	}

	s.metrics.RecordConversion(result.Format, result.Duration, nil)
	s.logger.Success("Created %s (%d slides)", result.Filename, result.SlideCount)
	s.notify(ports.EventTypeConversionCompleted, result)

	writeJSON(w, http.StatusOK, ConvertResponse{
		Success:      true,
		Filename:     result.Filename,
		SlideCount:   result.SlideCount,
		DownloadURL:  "/download/" + result.Filename,
		Format:       result.Format,
		Locale:       result.Locale,
		FileSize:     result.FileSize,
		MediaSkipped: result.MediaSkip,
	})
}

// failConversion records, broadcasts and answers a failed conversion
func (s *Server) failConversion(w http.ResponseWriter, r *http.Request, req ConvertRequest, err error) {
	s.metrics.RecordConversion(entities.Format(req.Format), 0, err)
	status, message := conversionStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Conversion failed [%s]: %v", RequestID(r.Context()), err)
	}
	s.notify(ports.EventTypeConversionFailed, map[string]string{"error": message})
	s.conversionFailed(w, status, message)
}

// handleDownload serves an artifact from the output directory
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	f, info, err := s.store.Open(mux.Vars(r)["filename"])
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Error("Opening artifact: %v", err)
		}
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "File not found"})
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", s.artifactMimeType(info.Name()))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name()}))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// handleCleanup purges artifacts older than the configured max age
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	cleaned, err := s.converter.Cleanup(r.Context())
	if err != nil {
		s.logger.Error("Cleanup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	s.metrics.RecordCleanup(cleaned)
	resp := CleanupResponse{
		Cleaned: cleaned,
		Message: fmt.Sprintf("Cleaned %d old files", cleaned),
	}
	s.notify(ports.EventTypeCleanup, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handlePreview returns the parsed deck with each slide as sanitized HTML
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(w, r)
	if err != nil {
		writeJSON(w, requestStatus(err), PreviewResponse{Error: requestMessage(err)})
		return
	}

	deck, htmlSlides, status, err := s.renderPreview(r.Context(), req)
	if err != nil {
		writeJSON(w, status, PreviewResponse{Error: err.Error()})
		return
	}

	slides := make([]PreviewSlide, len(deck))
	for i, slide := range deck {
		slides[i] = PreviewSlide{
			Index:  i,
			Type:   slide.Kind,
			Title:  slide.Title,
			Author: slide.Author,
			HTML:   htmlSlides[i],
		}
	}

	writeJSON(w, http.StatusOK, PreviewResponse{
		Success: true,
		Summary: deck.Summary(),
		Slides:  slides,
	})
}

// handlePreviewPage renders the parsed deck as an HTML page
func (s *Server) handlePreviewPage(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(w, r)
	if err != nil {
		http.Error(w, requestMessage(err), requestStatus(err))
		return
	}

	deck, htmlSlides, status, err := s.renderPreview(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	title := "Preview"
	if first, _ := deck.SplitTitle(); first != nil {
		title = first.Title
	}

	page, err := s.pages.RenderPreview(renderer.PreviewData{
		Title:      title,
		Summary:    deck.Summary(),
		SlidesHTML: htmlSlides,
	})
	if err != nil {
		s.logger.Error("Rendering preview page: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeHTML(w, page)
}

// renderPreview parses the request and renders every slide to sanitized
// HTML. The returned status is only meaningful with a non-nil error.
func (s *Server) renderPreview(ctx context.Context, req ConvertRequest) (entities.Deck, []string, int, error) {
	deck, err := s.converter.Preview(ctx, req.toEntity(nil))
	if err != nil {
		status, message := conversionStatus(err)
		return nil, nil, status, errors.New(message)
	}

	htmlSlides, err := s.preview.RenderSlides(deck)
	if err != nil {
		s.logger.Error("Rendering preview: %v", err)
		return nil, nil, http.StatusInternalServerError, errors.New("Internal server error")
	}

	for i := range htmlSlides {
		htmlSlides[i] = htmlSanitizer.Sanitize(htmlSlides[i])
	}
	return deck, htmlSlides, http.StatusOK, nil
}

// handleFormats lists formats, locales and markup modes
func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	formats := s.converter.SupportedFormats()
	resp := FormatsResponse{
		Formats: make([]FormatInfo, len(formats)),
		Locales: supportedLocales,
		Modes:   []entities.MarkupMode{entities.ModeBeamer, entities.ModeArticle},
	}
	for i, f := range formats {
		resp.Formats[i] = FormatInfo{Name: f, Extension: f.Extension(), MimeType: f.MimeType()}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMetrics reports conversion and request counters
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().UTC(),
		"connections": s.connections().Count(),
	})
}

// handleIndex serves the upload form
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.pages.RenderIndex(renderer.PageData{
		Title:       indexTitle,
		Formats:     s.converter.SupportedFormats(),
		Locales:     supportedLocales,
		MaxUploadMB: s.config.Output.GetMaxUploadBytes() >> 20,
	})
	if err != nil {
		s.logger.Error("Rendering index: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeHTML(w, page)
}

// decodeRequest reads a ConvertRequest from a JSON body or a form
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (ConvertRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Output.GetMaxUploadBytes())

	var req ConvertRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req = ConvertRequest{
			Markup:   r.PostFormValue("markup"),
			Latex:    r.PostFormValue("latex"),
			Locale:   r.PostFormValue("locale"),
			Language: r.PostFormValue("language"),
			Format:   r.PostFormValue("format"),
			Mode:     r.PostFormValue("mode"),
		}
	}

	req.normalize()
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Server) conversionFailed(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ConvertResponse{Success: false, Error: message})
}

func (s *Server) notify(eventType string, data interface{}) {
	err := s.NotifyClients(ports.UpdateEvent{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		s.logger.Debug("Event %s not broadcast: %v", eventType, err)
	}
}

func (s *Server) artifactMimeType(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, f := range s.converter.SupportedFormats() {
		if f.Extension() == ext {
			return f.MimeType()
		}
	}
	return "application/octet-stream"
}

// conversionStatus maps a conversion error to a status and client message
func conversionStatus(err error) (int, string) {
	var convErr *entities.ConversionError
	if errors.As(err, &convErr) {
		switch convErr.Type {
		case entities.ErrorTypeValidation, entities.ErrorTypeEmptyDeck:
			return http.StatusBadRequest, convErr.Error()
		default:
			return http.StatusInternalServerError, convErr.Error()
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, "Request cancelled"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// requestStatus maps a request decoding error to a status
func requestStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func requestMessage(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Sprintf("Request exceeds %d bytes", tooLarge.Limit)
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return fieldErrs.Error()
	}
	return "Invalid request body"
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

func isMultipart(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "multipart/form-data"
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeHTML(w http.ResponseWriter, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

// createHTMLSanitizer creates a restrictive HTML sanitizer for slide content
func createHTMLSanitizer() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("p", "br", "hr")
	p.AllowElements("strong", "b", "em", "i", "u", "s", "mark")
	p.AllowElements("ul", "ol", "li")
	p.AllowElements("blockquote", "pre", "code")
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	return p
}

var htmlSanitizer = createHTMLSanitizer()
