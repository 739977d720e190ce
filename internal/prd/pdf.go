package prd

import (
	"strings"

	"github.com/go-pdf/fpdf"
)

// renderPDF lays the draft out as an A4 document. The content is the
// lightweight markdown the LLM emits: bold "**...**" lines become headings,
// "- " lines become bullets, "---" becomes a rule.
func renderPDF(path, content string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Product Requirements Document", true)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr("Generated Product Requirements Document"), "", "L", false)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 5, tr("Automatically generated by the PersonaPRD assistant."), "", "L", false)
	pdf.Ln(4)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			pdf.Ln(2)
		case line == "---":
			x, y := pdf.GetX(), pdf.GetY()
			pdf.SetDrawColor(180, 180, 180)
			pdf.Line(x, y, 190, y)
			pdf.Ln(4)
		case strings.HasPrefix(line, "**PRD Draft:"):
			pdf.SetFont("Helvetica", "B", 15)
			pdf.MultiCell(0, 8, tr(stripBold(line)), "", "L", false)
			pdf.Ln(1)
		case strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**"):
			pdf.SetFont("Helvetica", "B", 12)
			pdf.MultiCell(0, 7, tr(stripBold(line)), "", "L", false)
		case strings.HasPrefix(line, "- "):
			pdf.SetFont("Helvetica", "", 11)
			pdf.SetX(14)
			pdf.MultiCell(0, 6, tr("• "+stripBold(strings.TrimPrefix(line, "- "))), "", "L", false)
			pdf.SetX(10)
		default:
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 6, tr(stripBold(line)), "", "L", false)
		}
	}

	return pdf.OutputFileAndClose(path)
}

func stripBold(line string) string {
	return strings.TrimSpace(strings.ReplaceAll(line, "**", ""))
}
