package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"text/template"
)

// EMU (English Metric Units) per inch, the OOXML drawing unit
const emuPerInch = 914400

// Slide width of the 10in x 7.5in (4:3) slide size
const slideWidthEMU = 10 * emuPerInch

// pptxShape is a positioned text box
type pptxShape struct {
	ID         int
	Name       string
	X, Y, W, H int64
	Paragraphs []pptxParagraph
}

// pptxParagraph is one paragraph of a text box
type pptxParagraph struct {
	Text   string
	Size   int // hundredths of a point
	Bold   bool
	Bullet bool
	Center bool
	Color  string // RRGGBB, empty for the theme text colour
}

// pptxPicture is a positioned image referencing a slide relationship
type pptxPicture struct {
	ID         int
	Name       string
	RelID      string
	X, Y, W, H int64
}

// pptxSlide is the content of one ppt/slides/slideN.xml part
type pptxSlide struct {
	Shapes   []pptxShape
	Pictures []pptxPicture
	// Media maps a relationship id to its part name under ppt/media
	Media []pptxMediaRel
}

type pptxMediaRel struct {
	RelID string
	Part  string
}

// pptxPackage accumulates the parts of a presentation before writing
type pptxPackage struct {
	Title   string
	Author  string
	Slides  []pptxSlide
	media   map[string][]byte
	ordered []string
}

func newPPTXPackage() *pptxPackage {
	return &pptxPackage{media: make(map[string][]byte)}
}

// addMedia stores a PNG under ppt/media and returns its part name
func (p *pptxPackage) addMedia(png []byte) string {
	part := fmt.Sprintf("image%d.png", len(p.ordered)+1)
	p.media[part] = png
	p.ordered = append(p.ordered, part)
	return part
}

// SlideIDs are the ids used in presentation.xml, starting at 256
func (p *pptxPackage) SlideIDs() []int {
	ids := make([]int, len(p.Slides))
	for i := range ids {
		ids[i] = 256 + i
	}
	return ids
}

// WriteTo writes the zip package
func (p *pptxPackage) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	parts := []pptxPart{
		{"[Content_Types].xml", "content_types", p},
		{"_rels/.rels", "root_rels", p},
		{"docProps/core.xml", "core", p},
		{"docProps/app.xml", "app", p},
		{"ppt/presentation.xml", "presentation", p},
		{"ppt/_rels/presentation.xml.rels", "presentation_rels", p},
		{"ppt/slideMasters/slideMaster1.xml", "master", p},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", "master_rels", p},
		{"ppt/slideLayouts/slideLayout1.xml", "layout", p},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", "layout_rels", p},
		{"ppt/theme/theme1.xml", "theme", p},
	}
	for i := range p.Slides {
		parts = append(parts,
			pptxPart{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), "slide", p.Slides[i]},
			pptxPart{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), "slide_rels", p.Slides[i]},
		)
	}

	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return cw.n, fmt.Errorf("creating %s: %w", part.name, err)
		}
		if err := pptxTemplates.ExecuteTemplate(f, part.tmpl, part.data); err != nil {
			return cw.n, fmt.Errorf("writing %s: %w", part.name, err)
		}
	}

	for _, name := range p.ordered {
		f, err := zw.Create("ppt/media/" + name)
		if err != nil {
			return cw.n, fmt.Errorf("creating media %s: %w", name, err)
		}
		if _, err := f.Write(p.media[name]); err != nil {
			return cw.n, fmt.Errorf("writing media %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("closing package: %w", err)
	}
	return cw.n, nil
}

// pptxPart is one XML part of the package and the template producing it
type pptxPart struct {
	name string
	tmpl string
	data interface{}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}

// xmlEscape escapes text content and attribute values
func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

var pptxTemplates = template.Must(template.New("pptx").Funcs(template.FuncMap{
	"esc": xmlEscape,
	"add": func(a, b int) int { return a + b },
}).Parse(pptxTemplateText))

const pptxNamespaces = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

const pptxTemplateText = `
{{- define "content_types" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="png" ContentType="image/png"/>
<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>
<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>
<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>
{{- range $i, $s := .Slides}}
<Override PartName="/ppt/slides/slide{{add $i 1}}.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>
{{- end}}
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>
</Types>
{{- end}}

{{- define "root_rels" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>
</Relationships>
{{- end}}

{{- define "core" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<dc:title>{{esc .Title}}</dc:title>
<dc:creator>{{esc .Author}}</dc:creator>
</cp:coreProperties>
{{- end}}

{{- define "app" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">
<Application>texdeck</Application>
<Slides>{{len .Slides}}</Slides>
</Properties>
{{- end}}

{{- define "presentation" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation ` + pptxNamespaces + ` saveSubsetFonts="1">
<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>
<p:sldIdLst>
{{- range $i, $id := .SlideIDs}}<p:sldId id="{{$id}}" r:id="rId{{add $i 3}}"/>{{end -}}
</p:sldIdLst>
<p:sldSz cx="9144000" cy="6858000" type="screen4x3"/>
<p:notesSz cx="6858000" cy="9144000"/>
</p:presentation>
{{- end}}

{{- define "presentation_rels" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="theme/theme1.xml"/>
{{- range $i, $s := .Slides}}
<Relationship Id="rId{{add $i 3}}" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide{{add $i 1}}.xml"/>
{{- end}}
</Relationships>
{{- end}}

{{- define "master" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldMaster ` + pptxNamespaces + `>
<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg>{{template "empty_tree"}}</p:cSld>
<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>
<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>
</p:sldMaster>
{{- end}}

{{- define "master_rels" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/>
</Relationships>
{{- end}}

{{- define "layout" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout ` + pptxNamespaces + ` type="blank" preserve="1">
<p:cSld name="Blank">{{template "empty_tree"}}</p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sldLayout>
{{- end}}

{{- define "layout_rels" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/>
</Relationships>
{{- end}}

{{- define "empty_tree" -}}
<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr></p:spTree>
{{- end}}

{{- define "slide" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld ` + pptxNamespaces + `>
<p:cSld><p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>
{{- range .Shapes}}
<p:sp><p:nvSpPr><p:cNvPr id="{{.ID}}" name="{{esc .Name}}"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>
<p:spPr><a:xfrm><a:off x="{{.X}}" y="{{.Y}}"/><a:ext cx="{{.W}}" cy="{{.H}}"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>
<p:txBody><a:bodyPr wrap="square" rtlCol="0"><a:normAutofit/></a:bodyPr><a:lstStyle/>
{{- range .Paragraphs}}
<a:p>
{{- if .Bullet}}<a:pPr marL="342900" lvl="0" indent="-342900"><a:buFont typeface="Arial"/><a:buChar char="&#8226;"/></a:pPr>
{{- else if .Center}}<a:pPr lvl="0" algn="ctr"><a:buNone/></a:pPr>
{{- else}}<a:pPr lvl="0"><a:buNone/></a:pPr>{{end -}}
{{- if .Text}}<a:r><a:rPr lang="en-US" sz="{{.Size}}"{{if .Bold}} b="1"{{end}} dirty="0">{{if .Color}}<a:solidFill><a:srgbClr val="{{.Color}}"/></a:solidFill>{{end}}</a:rPr><a:t>{{esc .Text}}</a:t></a:r>{{end -}}
<a:endParaRPr lang="en-US" sz="{{.Size}}" dirty="0"/></a:p>
{{- else}}
<a:p><a:endParaRPr lang="en-US" dirty="0"/></a:p>
{{- end}}
</p:txBody></p:sp>
{{- end}}
{{- range .Pictures}}
<p:pic><p:nvPicPr><p:cNvPr id="{{.ID}}" name="{{esc .Name}}"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>
<p:blipFill><a:blip r:embed="{{.RelID}}"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>
<p:spPr><a:xfrm><a:off x="{{.X}}" y="{{.Y}}"/><a:ext cx="{{.W}}" cy="{{.H}}"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>
{{- end}}
</p:spTree></p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sld>
{{- end}}

{{- define "slide_rels" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>
{{- range .Media}}
<Relationship Id="{{.RelID}}" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/{{.Part}}"/>
{{- end}}
</Relationships>
{{- end}}

{{- define "theme" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="texdeck">
<a:themeElements>
<a:clrScheme name="texdeck">
<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1>
<a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>
<a:dk2><a:srgbClr val="1F497D"/></a:dk2>
<a:lt2><a:srgbClr val="EEECE1"/></a:lt2>
<a:accent1><a:srgbClr val="0066CC"/></a:accent1>
<a:accent2><a:srgbClr val="FF9933"/></a:accent2>
<a:accent3><a:srgbClr val="28A745"/></a:accent3>
<a:accent4><a:srgbClr val="DC3545"/></a:accent4>
<a:accent5><a:srgbClr val="4BACC6"/></a:accent5>
<a:accent6><a:srgbClr val="F79646"/></a:accent6>
<a:hlink><a:srgbClr val="0000FF"/></a:hlink>
<a:folHlink><a:srgbClr val="800080"/></a:folHlink>
</a:clrScheme>
<a:fontScheme name="texdeck">
<a:majorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>
<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>
</a:fontScheme>
<a:fmtScheme name="texdeck">
<a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>
<a:lnStyleLst><a:ln w="9525"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="25400"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="38100"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>
<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>
<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>
</a:fmtScheme>
</a:themeElements>
</a:theme>
{{- end}}
`
