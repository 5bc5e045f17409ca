package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/claim"
	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/logger"
)

// RenderError reports a claim record that could not be rendered. No output
// file exists when one of these is returned.
type RenderError struct {
	ClaimID string
	Reason  string
	Err     error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render claim %s: %s: %v", e.ClaimID, e.Reason, e.Err)
	}
	return fmt.Sprintf("render claim %s: %s", e.ClaimID, e.Reason)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Options configures a PDFRenderer.
type Options struct {
	// Designs maps clinic names to visual profiles; clinics without an entry
	// get the default design.
	Designs map[string]Design

	// Compress enables PDF stream compression. Tests disable it so content
	// streams can be inspected as text.
	Compress bool
}

// PDFRenderer lays claim records out as single-page Letter PDFs.
type PDFRenderer struct {
	designs  map[string]Design
	compress bool
}

func NewPDFRenderer(opts Options) *PDFRenderer {
	return &PDFRenderer{designs: opts.Designs, compress: opts.Compress}
}

// Render validates the record, lays out the page, and writes it to outPath.
// The bytes go to a temporary file first and are renamed into place only on
// success, so a failed render never leaves a truncated PDF behind.
func (r *PDFRenderer) Render(rec *claim.ClaimRecord, outPath string) error {
	if err := validate(rec); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := r.layout(rec, &buf); err != nil {
		return &RenderError{ClaimID: rec.ClaimID, Reason: "layout page", Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".claim-*.pdf")
	if err != nil {
		return &RenderError{ClaimID: rec.ClaimID, Reason: "create temp file", Err: err}
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &RenderError{ClaimID: rec.ClaimID, Reason: "write temp file", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &RenderError{ClaimID: rec.ClaimID, Reason: "close temp file", Err: err}
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		os.Remove(tmp.Name())
		return &RenderError{ClaimID: rec.ClaimID, Reason: "move file into place", Err: err}
	}

	logger.L().Debugw("rendered claim PDF",
		"claim_id", rec.ClaimID,
		"path", outPath,
		"bytes", buf.Len())
	return nil
}

// validate rejects records with absent required fields before any bytes are
// produced.
func validate(rec *claim.ClaimRecord) error {
	missing := func(field string) *RenderError {
		return &RenderError{ClaimID: rec.ClaimID, Reason: "missing required field " + field}
	}
	switch {
	case rec.Patient.Name == "":
		return missing("patient.name")
	case rec.Patient.ID == "":
		return missing("patient.id")
	case rec.Clinic.Name == "":
		return missing("clinic.name")
	case rec.Doctor.Name == "":
		return missing("doctor.name")
	case rec.Doctor.Specialty == "":
		return missing("doctor.specialty")
	case rec.Disease == "":
		return missing("disease")
	case len(rec.Items) == 0:
		return missing("items")
	}
	for i, it := range rec.Items {
		if it.Description == "" {
			return missing(fmt.Sprintf("items[%d].description", i))
		}
		if it.Quantity < 1 {
			return &RenderError{ClaimID: rec.ClaimID, Reason: fmt.Sprintf("items[%d].quantity must be >= 1, got %d", i, it.Quantity)}
		}
	}
	if !rec.Total.Equal(rec.SumItems()) {
		return &RenderError{ClaimID: rec.ClaimID,
			Reason: fmt.Sprintf("grand total %s does not match line totals %s", rec.Total.StringFixed(2), rec.SumItems().StringFixed(2))}
	}
	return nil
}

// layout draws the fixed bill template: logo placeholder, clinic block,
// patient block, doctor/diagnosis block, items table, total, footer.
func (r *PDFRenderer) layout(rec *claim.ClaimRecord, buf *bytes.Buffer) error {
	design, ok := r.designs[rec.Clinic.Name]
	if !ok {
		design = defaultDesign()
	}
	pr, pg, pb := hexToRGB(design.PrimaryColor)
	sr, sg, sb := hexToRGB(design.SecondaryColor)
	font := design.Font
	if font == "" {
		font = "Helvetica"
	}

	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(r.compress)
	pdf.AddPage()

	// Logo placeholder: framed box with the clinic's initials.
	pdf.SetDrawColor(pr, pg, pb)
	pdf.Rect(15, 15, 35, 18, "D")
	pdf.SetFont(font, "B", 14)
	pdf.SetTextColor(pr, pg, pb)
	pdf.SetXY(15, 20)
	pdf.CellFormat(35, 8, clinicInitials(rec.Clinic.Name), "", 0, "C", false, 0, "")

	// Clinic block.
	pdf.SetXY(55, 15)
	pdf.SetFont(font, "B", 16)
	pdf.CellFormat(0, 7, rec.Clinic.Name, "", 1, "L", false, 0, "")
	pdf.SetX(55)
	pdf.SetFont(font, "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 5, rec.Clinic.Address, "", 1, "L", false, 0, "")
	pdf.SetX(55)
	pdf.CellFormat(0, 5, "Phone: "+rec.Clinic.Telephone, "", 1, "L", false, 0, "")
	pdf.SetX(55)
	pdf.CellFormat(0, 5, "Email: "+rec.Clinic.Email, "", 1, "L", false, 0, "")

	// Bill header rule.
	pdf.SetY(42)
	pdf.SetFont(font, "B", 13)
	pdf.SetTextColor(pr, pg, pb)
	pdf.CellFormat(0, 7, "Medical Bill Receipt", "", 1, "L", false, 0, "")
	pdf.SetDrawColor(pr, pg, pb)
	pdf.Line(15, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(4)

	// Patient block.
	pdf.SetFont(font, "", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 6, "Patient Name: "+rec.Patient.Name, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Patient ID: "+rec.Patient.ID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date of Service: "+rec.ServiceDate.Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// Doctor and diagnosis block.
	pdf.CellFormat(0, 6, fmt.Sprintf("Doctor: %s (%s)", rec.Doctor.Name, rec.Doctor.Specialty), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Diagnosis: "+rec.Disease, "", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Items table, in record order.
	colWidths := []float64{85, 20, 35, 35}
	headers := []string{"Description", "Qty", "Unit Price ($)", "Total ($)"}
	pdf.SetFont(font, "B", 10)
	pdf.SetFillColor(pr, pg, pb)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(font, "", 10)
	pdf.SetFillColor(sr, sg, sb)
	pdf.SetTextColor(0, 0, 0)
	for _, it := range rec.Items {
		pdf.CellFormat(colWidths[0], 6, it.Description, "1", 0, "L", true, 0, "")
		pdf.CellFormat(colWidths[1], 6, fmt.Sprintf("%d", it.Quantity), "1", 0, "C", true, 0, "")
		pdf.CellFormat(colWidths[2], 6, it.UnitPrice.StringFixed(2), "1", 0, "R", true, 0, "")
		pdf.CellFormat(colWidths[3], 6, it.LineTotal.StringFixed(2), "1", 0, "R", true, 0, "")
		pdf.Ln(-1)
	}

	// Grand total row; must match the record's total exactly.
	pdf.SetFont(font, "B", 11)
	pdf.SetTextColor(pr, pg, pb)
	pdf.CellFormat(colWidths[0]+colWidths[1]+colWidths[2], 8, "Total Amount", "", 0, "R", false, 0, "")
	pdf.CellFormat(colWidths[3], 8, "$ "+rec.Total.StringFixed(2), "1", 1, "R", false, 0, "")

	// Footer.
	pdf.SetY(-35)
	pdf.SetFont(font, "", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 5, fmt.Sprintf("Thank you for choosing %s!", rec.Clinic.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("For any queries, please contact us at %s or %s", rec.Clinic.Telephone, rec.Clinic.Email),
		"", 1, "L", false, 0, "")

	return pdf.Output(buf)
}

// clinicInitials builds the placeholder logo text, e.g. "City General" -> "CG".
func clinicInitials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		b.WriteRune([]rune(word)[0])
		if b.Len() >= 3 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return strings.ToUpper(b.String())
}
