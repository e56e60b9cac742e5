package certificates

import (
	"bytes"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdfkit "event-system/feedback-portal/feedback-portal-backend/pkg/pdf"
)

// fixturePDF builds a simple n-page template document.
func fixturePDF(t *testing.T, pages int) []byte {
	t.Helper()

	doc := gofpdf.New("L", "pt", "A4", "")
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.SetFont("Helvetica", "B", 28)
		doc.Text(120, 120, "Certificate of Participation")
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func newTestCompositor() *Compositor {
	return NewCompositor(pdfkit.LoadFontMetrics())
}

func TestValidateAcceptsRealPDF(t *testing.T) {
	c := newTestCompositor()
	assert.NoError(t, c.Validate(fixturePDF(t, 1)))
}

func TestValidateRejectsGarbage(t *testing.T) {
	c := newTestCompositor()

	err := c.Validate([]byte("this is not a pdf"))
	require.Error(t, err)

	var tplErr *TemplateError
	assert.ErrorAs(t, err, &tplErr)
}

func TestValidateRejectsEmpty(t *testing.T) {
	c := newTestCompositor()

	var tplErr *TemplateError
	assert.ErrorAs(t, c.Validate(nil), &tplErr)
}

func TestRenderProducesPDF(t *testing.T) {
	c := newTestCompositor()
	template := fixturePDF(t, 1)

	out, err := c.Render(template, []RenderField{
		{
			Mapping: FieldMapping{
				FormField: "name",
				Position:  Position{X: 200, Y: 300, Page: 1},
				Style:     FieldStyle{Size: 24, Color: "#1a2b3c"},
			},
			Value: "Jane Doe",
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	// Output must itself be a loadable template.
	assert.NoError(t, c.Validate(out))
}

func TestRenderDoesNotMutateInput(t *testing.T) {
	c := newTestCompositor()
	template := fixturePDF(t, 1)
	original := make([]byte, len(template))
	copy(original, template)

	_, err := c.Render(template, []RenderField{
		{Mapping: FieldMapping{FormField: "name", Position: Position{X: 50, Y: 50}}, Value: "Jane"},
	})
	require.NoError(t, err)
	assert.Equal(t, original, template)
}

func TestRenderMultiPagePlacement(t *testing.T) {
	c := newTestCompositor()
	template := fixturePDF(t, 3)

	out, err := c.Render(template, []RenderField{
		{Mapping: FieldMapping{FormField: "name", Position: Position{X: 100, Y: 100, Page: 2}}, Value: "Page Two"},
		{Mapping: FieldMapping{FormField: "date", Position: Position{X: 100, Y: 140, Page: 3}}, Value: "2026-08-29"},
	})
	require.NoError(t, err)
	assert.NoError(t, c.Validate(out))
}

func TestRenderRejectsBrokenTemplate(t *testing.T) {
	c := newTestCompositor()

	_, err := c.Render([]byte("%PDF-1.7 truncated garbage"), nil)
	var tplErr *TemplateError
	assert.ErrorAs(t, err, &tplErr)
}

func TestRenderRejectsBadColor(t *testing.T) {
	c := newTestCompositor()

	_, err := c.Render(fixturePDF(t, 1), []RenderField{
		{
			Mapping: FieldMapping{
				FormField: "name",
				Position:  Position{X: 50, Y: 50},
				Style:     FieldStyle{Color: "not-a-color"},
			},
			Value: "Jane",
		},
	})
	assert.Error(t, err)
}

func TestShrinkToFitReducesFontSize(t *testing.T) {
	metrics := pdfkit.LoadFontMetrics()

	// A name long enough that 12pt Helvetica cannot fit in 200pt.
	value := "Jane Q. Public-Extraordinaire of Much Renown"
	start := 12.0
	require.Greater(t, metrics.TextWidth(value, "Helvetica", "", start), 200.0)

	size := start
	width := metrics.TextWidth(value, "Helvetica", "", size)
	for width > 200 && size > shrinkFloorPt {
		size--
		width = metrics.TextWidth(value, "Helvetica", "", size)
	}
	assert.Less(t, size, start)
	assert.True(t, width <= 200 || size <= shrinkFloorPt)

	// The render itself must still succeed at the shrunken size.
	c := NewCompositor(metrics)
	out, err := c.Render(fixturePDF(t, 1), []RenderField{
		{Mapping: FieldMapping{FormField: "name", Position: Position{X: 300, Y: 250}}, Value: value},
	})
	require.NoError(t, err)
	assert.NoError(t, c.Validate(out))
}

func TestTargetPageDefaultsToFirst(t *testing.T) {
	assert.Equal(t, 1, targetPage(FieldMapping{Position: Position{Page: 0}}))
	assert.Equal(t, 1, targetPage(FieldMapping{Position: Position{Page: -2}}))
	assert.Equal(t, 4, targetPage(FieldMapping{Position: Position{Page: 4}}))
}
