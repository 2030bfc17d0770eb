package renderer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

// PageData feeds the index page template
type PageData struct {
	Title       string
	Formats     []entities.Format
	Locales     []entities.Locale
	MaxUploadMB int64
}

// PreviewData feeds the preview page template. SlidesHTML must already be
// sanitized by the caller.
type PreviewData struct {
	Title      string
	Summary    string
	SlidesHTML []string
}

// TemplateRenderer renders the HTML pages served next to the API
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer creates a new template-based renderer
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl := template.New("index")

	tmpl = tmpl.Funcs(template.FuncMap{
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s) // #nosec G203 - input is sanitized before it reaches the template
		},
		"ext": func(f entities.Format) string {
			return f.Extension()
		},
		"suffix": func(l entities.Locale) string {
			return l.Suffix()
		},
	})

	_, err := tmpl.Parse(defaultIndexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing index template: %w", err)
	}

	_, err = tmpl.New("preview").Parse(defaultPreviewTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing preview template: %w", err)
	}

	return &TemplateRenderer{
		templates: tmpl,
	}, nil
}

// RenderIndex renders the upload form page
func (r *TemplateRenderer) RenderIndex(data PageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "index", data); err != nil {
		return nil, fmt.Errorf("executing index template: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPreview renders a parsed deck as a scrollable HTML page
func (r *TemplateRenderer) RenderPreview(data PreviewData) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "preview", data); err != nil {
		return nil, fmt.Errorf("executing preview template: %w", err)
	}
	return buf.Bytes(), nil
}

const defaultIndexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 720px; margin: 2em auto; color: #2c3e50; }
        h1 { color: #0066cc; }
        fieldset { border: 1px solid #ddd; border-radius: 4px; margin-bottom: 1em; }
        button { background: #0066cc; color: #fff; border: 0; padding: 0.6em 1.4em; border-radius: 4px; cursor: pointer; }
        .status { display: none; margin-top: 1em; padding: 0.6em; border-radius: 4px; }
        .status.success { background: #d4edda; }
        .status.error { background: #f8d7da; }
        .status.processing { background: #fff3cd; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <form id="convert-form" enctype="multipart/form-data">
        <fieldset>
            <legend>LaTeX source</legend>
            <input type="file" id="tex-file" name="tex_file" accept=".tex" required>
        </fieldset>
        <fieldset>
            <legend>Media (max {{.MaxUploadMB}} MB per request)</legend>
            <input type="file" id="media-files" multiple accept="image/*,video/*">
        </fieldset>
        <fieldset>
            <legend>Language</legend>
            {{range $i, $l := .Locales}}
            <label><input type="radio" name="language" value="{{$l}}"{{if eq $i 0}} checked{{end}}> {{suffix $l}}</label>
            {{end}}
        </fieldset>
        <fieldset>
            <legend>Format</legend>
            {{range $i, $f := .Formats}}
            <label><input type="radio" name="format" value="{{$f}}"{{if eq $i 0}} checked{{end}}> .{{ext $f}}</label>
            {{end}}
        </fieldset>
        <button type="submit">Start Create</button>
    </form>
    <div id="status" class="status"></div>

    <script>
    document.getElementById('convert-form').addEventListener('submit', function (e) {
        e.preventDefault();
        var form = e.target;
        var data = new FormData();
        data.append('tex_file', document.getElementById('tex-file').files[0]);
        data.append('language', form.querySelector('input[name="language"]:checked').value);
        data.append('format', form.querySelector('input[name="format"]:checked').value);
        Array.from(document.getElementById('media-files').files).forEach(function (file, i) {
            data.append('media_' + i, file);
            data.append('media_type_' + i, file.type.indexOf('video') === 0 ? 'video' : 'image');
        });
        showStatus('Creating presentation...', 'processing');
        fetch('/convert/upload', { method: 'POST', body: data })
            .then(function (r) { return r.json(); })
            .then(function (res) {
                if (!res.success) { showStatus('Error: ' + res.error, 'error'); return; }
                showStatus('Presentation created successfully!', 'success');
                var link = document.createElement('a');
                link.href = res.download_url;
                link.download = res.filename;
                document.body.appendChild(link);
                link.click();
                document.body.removeChild(link);
            })
            .catch(function (err) { showStatus('Error: ' + err.message, 'error'); });
    });

    function showStatus(message, type) {
        var status = document.getElementById('status');
        status.textContent = message;
        status.className = 'status ' + type;
        status.style.display = 'block';
    }
    </script>
</body>
</html>`

const defaultPreviewTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: #f4f4f4; }
        .slide { background: #fff; max-width: 800px; margin: 1em auto; padding: 1.5em 2em; border-radius: 4px; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
        .slide h1, .slide h2 { color: #0066cc; }
        .summary { text-align: center; color: #666; }
    </style>
</head>
<body>
    <p class="summary">{{.Summary}}</p>
    {{range $index, $html := .SlidesHTML}}
    <div class="slide" data-index="{{$index}}">
        {{$html | safeHTML}}
    </div>
    {{end}}
</body>
</html>`
