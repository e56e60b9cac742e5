package pdf

import (
	"strings"
	"sync"

	"github.com/jung-kurt/gofpdf"
)

// FontMetrics measures rendered text widths using the core PDF fonts. It is
// loaded once at startup and shared read-only across renders; the underlying
// measuring document is not safe for concurrent use, so calls serialize on an
// internal mutex.
type FontMetrics struct {
	mu  sync.Mutex
	doc *gofpdf.Fpdf
	tr  func(string) string
}

// LoadFontMetrics builds the process-wide font metrics resource.
func LoadFontMetrics() *FontMetrics {
	doc := gofpdf.New("P", "pt", "A4", "")
	return &FontMetrics{
		doc: doc,
		tr:  doc.UnicodeTranslatorFromDescriptor(""),
	}
}

// TextWidth returns the width in points of text at the given font family,
// style ("", "B", "I", "BI") and size.
func (m *FontMetrics) TextWidth(text, family, style string, size float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.doc.SetFont(CoreFontFamily(family), style, size)
	return m.doc.GetStringWidth(m.tr(text))
}

// CoreFontFamily maps an arbitrary requested font name onto one of the core
// font families gofpdf ships metrics for. Unknown names fall back to Helvetica.
func CoreFontFamily(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "times", "times-roman", "times new roman", "serif":
		return "Times"
	case "courier", "courier new", "monospace":
		return "Courier"
	default:
		return "Helvetica"
	}
}

// FontStyle builds the gofpdf style string from bold/italic flags.
func FontStyle(bold, italic bool) string {
	style := ""
	if bold {
		style += "B"
	}
	if italic {
		style += "I"
	}
	return style
}
