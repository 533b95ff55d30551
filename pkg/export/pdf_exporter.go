package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets and schedule cards into PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// CardSection is one labelled list on a schedule card.
type CardSection struct {
	Title string
	Lines []string
}

// Card describes a one-page per-student document.
type Card struct {
	Title    string
	Subtitle string
	Sections []CardSection
	Footer   string
}

// RenderCard creates a one-page card document, one section per list.
func (e *PDFExporter) RenderCard(card Card) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, card.Title, "", 1, "C", false, 0, "")
	if card.Subtitle != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, card.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	for _, section := range card.Sections {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, section.Title, "B", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		if len(section.Lines) == 0 {
			pdf.CellFormat(0, 7, "(none)", "", 1, "", false, 0, "")
		}
		for i, line := range section.Lines {
			pdf.CellFormat(0, 7, fmt.Sprintf("%d. %s", i+1, line), "", 1, "", false, 0, "")
		}
		pdf.Ln(3)
	}

	if card.Footer != "" {
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, card.Footer, "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render schedule card: %w", err)
	}
	return buf.Bytes(), nil
}
