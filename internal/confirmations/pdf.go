package confirmations

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
)

type pdfLayout func(pdf *gofpdf.Fpdf, tr func(string) string, c *Confirmation)

// PDFRenderer draws confirmations with gofpdf. Layouts are keyed by the same
// identifiers as the HTML templates.
type PDFRenderer struct {
	layouts map[string]pdfLayout
	now     func() time.Time
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{
		layouts: map[string]pdfLayout{
			TemplateBooking: bookingLayout,
		},
		now: time.Now,
	}
}

func (r *PDFRenderer) RenderPDF(templateID string, c *Confirmation) ([]byte, error) {
	layout, ok := r.layouts[templateID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", templateID, ErrTemplateNotFound)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(r.now())
	pdf.SetTitle("Reservation "+c.Code, true)
	// core fonts are cp1252; accented names need translating
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	layout(pdf, tr, c)

	if err := pdf.Error(); err != nil {
		return nil, &GenerationError{Diagnostic: err.Error(), Err: err}
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &GenerationError{Diagnostic: err.Error(), Err: err}
	}
	return buf.Bytes(), nil
}

const seatsPerLine = 8

func bookingLayout(pdf *gofpdf.Fpdf, tr func(string) string, c *Confirmation) {
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, tr(c.EventTitle), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(0, 8, tr(c.EventDate+" - "+c.EventTime), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(30, 8, "Name", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, tr(c.OwnerName), "", 1, "L", false, 0, "")
	if c.OwnerEmail != "" {
		pdf.CellFormat(30, 8, "Email", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, c.OwnerEmail, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Seats (%d)", len(c.Seats)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	for i, label := range c.Seats {
		lineEnd := 0
		if (i+1)%seatsPerLine == 0 || i == len(c.Seats)-1 {
			lineEnd = 1
		}
		pdf.CellFormat(20, 9, label, "1", lineEnd, "C", false, 0, "")
	}
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Reservation code", "", 1, "C", false, 0, "")
	pdf.SetFont("Courier", "B", 26)
	pdf.CellFormat(0, 14, c.Code, "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Present this code at the entrance. The reservation is valid only for the seats listed above.", "", "C", false)
}
