// Package pdfrender renders agreement field maps into a simple PDF.
package pdfrender

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
)

const (
	marginMM     = 25.4
	labelWidthMM = 55.0
	lineHeightMM = 6.0
	fontFamily   = "Helvetica"
)

// Renderer turns an agreement title and its fields into PDF bytes.
type Renderer interface {
	Render(title string, fields map[string]string) ([]byte, error)
}

// FieldRenderer lays fields out as a two-column Field/Value table on A4
// portrait pages.
type FieldRenderer struct{}

// New returns a FieldRenderer.
func New() *FieldRenderer { return &FieldRenderer{} }

// Render implements Renderer.
func (FieldRenderer) Render(title string, fields map[string]string) ([]byte, error) {
	return Render(title, fields)
}

// Render produces an A4 document with one-inch margins, the title on top and
// a "Page N of M" footer. Fields are emitted in key order.
func Render(title string, fields map[string]string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	pdf.SetTitle(title, true)
	pdf.AliasNbPages("{nb}")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-marginMM + 5)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 16)
	pdf.MultiCell(0, 9, tr(title), "", "C", false)
	pdf.Ln(6)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pageW, pageH := pdf.GetPageSize()
	valueW := pageW - 2*marginMM - labelWidthMM

	pdf.SetFont(fontFamily, "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(labelWidthMM, lineHeightMM+2, "Field", "1", 0, "L", true, 0, "")
	pdf.CellFormat(valueW, lineHeightMM+2, "Value", "1", 1, "L", true, 0, "")

	for _, k := range keys {
		value := tr(fields[k])
		pdf.SetFont(fontFamily, "", 11)
		lines := len(pdf.SplitLines([]byte(value), valueW-2))
		if lines == 0 {
			lines = 1
		}
		rowH := float64(lines) * lineHeightMM
		if pdf.GetY()+rowH > pageH-marginMM {
			pdf.AddPage()
		}

		pdf.SetFont(fontFamily, "B", 11)
		pdf.CellFormat(labelWidthMM, rowH, tr(Label(k)), "1", 0, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", 11)
		pdf.MultiCell(valueW, lineHeightMM, value, "1", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render agreement: %w", err)
	}

	return buf.Bytes(), nil
}

// Label turns a camelCase or snake_case key into a title-cased label,
// e.g. "clientFullName" becomes "Client Full Name".
func Label(key string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(key)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])):
			flush()
		}
		cur = append(cur, r)
	}
	flush()

	for i, w := range words {
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}

	return strings.Join(words, " ")
}
