package certificates

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/phpdave11/gofpdi"

	pdfkit "event-system/feedback-portal/feedback-portal-backend/pkg/pdf"
)

// shrinkFloorPt is the smallest font size shrink-to-fit will go down to.
const shrinkFloorPt = 6.0

// RenderField pairs a field mapping with its resolved value.
type RenderField struct {
	Mapping FieldMapping
	Value   string
}

// Compositor composites resolved field values onto a template PDF. It holds no
// per-render state beyond the injected font metrics, so a single instance is
// safe for concurrent renders.
type Compositor struct {
	metrics *pdfkit.FontMetrics
	conf    *model.Configuration
}

// NewCompositor creates a compositor using the shared font metrics resource.
func NewCompositor(metrics *pdfkit.FontMetrics) *Compositor {
	return &Compositor{
		metrics: metrics,
		conf:    model.NewDefaultConfiguration(),
	}
}

// Validate reports whether templateBytes parse as a PDF with at least one
// page. The returned error is a *TemplateError when they do not.
func (c *Compositor) Validate(templateBytes []byte) error {
	_, err := c.readTemplate(templateBytes)
	return err
}

// readTemplate parses the template and returns its page dimensions in points.
func (c *Compositor) readTemplate(templateBytes []byte) ([]pageGeometry, error) {
	pdfCtx, err := api.ReadContext(bytes.NewReader(templateBytes), c.conf)
	if err != nil {
		return nil, &TemplateError{Reason: "not a parseable PDF", Err: err}
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return nil, &TemplateError{Reason: "failed validation", Err: err}
	}
	dims, err := pdfCtx.PageDims()
	if err != nil {
		return nil, &TemplateError{Reason: "unreadable page geometry", Err: err}
	}
	if len(dims) == 0 {
		return nil, &TemplateError{Reason: "document has no pages"}
	}

	pages := make([]pageGeometry, len(dims))
	for i, d := range dims {
		pages[i] = pageGeometry{Width: d.Width, Height: d.Height}
	}
	return pages, nil
}

type pageGeometry struct {
	Width  float64
	Height float64
}

// Render copies every page of the template into a fresh document and draws
// each field on its target page. The input buffer is never mutated; the
// template is re-parsed on every call since consecutive renders may target
// different responses.
func (c *Compositor) Render(templateBytes []byte, fields []RenderField) ([]byte, error) {
	pages, err := c.readTemplate(templateBytes)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := c.compose(templateBytes, pages, fields, &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// compose does the actual page import and drawing. gofpdi signals parse
// problems by panicking, so the whole walk runs under a recover that converts
// them into TemplateError.
func (c *Compositor) compose(templateBytes []byte, pages []pageGeometry, fields []RenderField, w io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TemplateError{Reason: fmt.Sprintf("page import failed: %v", r)}
		}
	}()

	doc := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pages[0].Width, Ht: pages[0].Height},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	translate := doc.UnicodeTranslatorFromDescriptor("")

	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(templateBytes))
	importer.SetSourceStream(&rs)

	for pageNo := 1; pageNo <= len(pages); pageNo++ {
		geom := pages[pageNo-1]

		tplID := importer.ImportPage(pageNo, "/MediaBox")
		doc.ImportTemplates(importer.PutFormXobjectsUnordered())
		doc.ImportObjects(importer.GetImportedObjectsUnordered())
		doc.ImportObjPos(importer.GetImportedObjHashPos())

		orientation := "P"
		if geom.Width > geom.Height {
			orientation = "L"
		}
		doc.AddPageFormat(orientation, gofpdf.SizeType{Wd: geom.Width, Ht: geom.Height})

		tplName, scaleX, scaleY, tX, tY := importer.UseTemplate(tplID, 0, 0, geom.Width, geom.Height)
		doc.UseImportedTemplate(tplName, scaleX, scaleY, tX, tY)

		for _, field := range fields {
			if targetPage(field.Mapping) != pageNo || field.Value == "" {
				continue
			}
			if err := c.drawField(doc, translate, field.Mapping, field.Value); err != nil {
				return err
			}
		}
	}

	if err := doc.Output(w); err != nil {
		return &TemplateError{Reason: "serialization failed", Err: err}
	}
	return nil
}

// drawField draws one value at its mapped position, shrinking the font size
// until the text fits the mapping's maximum width or the 6pt floor is hit.
// Shrinking is the only overflow strategy: no wrapping, truncation or
// ellipsis.
func (c *Compositor) drawField(doc *gofpdf.Fpdf, translate func(string) string, mapping FieldMapping, value string) error {
	style := mapping.Style.withDefaults()
	family := pdfkit.CoreFontFamily(style.Font)
	fontStyle := pdfkit.FontStyle(style.Bold, style.Italic)

	size := style.Size
	width := c.metrics.TextWidth(value, family, fontStyle, size)
	for width > style.MaxWidth && size > shrinkFloorPt {
		size--
		width = c.metrics.TextWidth(value, family, fontStyle, size)
	}

	color, err := pdfkit.ParseHexColor(style.Color)
	if err != nil {
		return fmt.Errorf("field %q: %w", mapping.FormField, err)
	}

	x := mapping.Position.X
	switch style.Alignment {
	case AlignCenter:
		x -= width / 2
	case AlignRight:
		x -= width
	}

	// The authored Y anchors the text's top edge in top-left page
	// coordinates; gofpdf places the baseline, so shift down by one line
	// height. This is pageHeight - y - size in PDF's bottom-left system.
	baseline := mapping.Position.Y + size

	r, g, b := color.Scaled()
	doc.SetFont(family, fontStyle, size)
	doc.SetTextColor(r, g, b)
	doc.Text(x, baseline, translate(value))
	return nil
}

func targetPage(m FieldMapping) int {
	if m.Position.Page < 1 {
		return 1
	}
	return m.Position.Page
}
