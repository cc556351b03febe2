package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/amirphl/vitrine/models"
	"github.com/amirphl/vitrine/utils"
	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

// ExportFormat names a supported contact export encoding
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
)

func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatCSV, ExportFormatPDF, ExportFormatXLSX:
		return true
	}
	return false
}

// ContentType returns the MIME type served for the format
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatCSV:
		return "text/csv; charset=utf-8"
	case ExportFormatPDF:
		return "application/pdf"
	case ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// ExportSheetName is the worksheet holding exported contacts
const ExportSheetName = "Contatos"

var exportHeader = []string{
	"Nome",
	"Email",
	"WhatsApp",
	"Descrição do Projeto",
	"Data de Contato",
	"Status",
	"Anexo",
	"Observações",
}

// ContactExporter renders contact submissions as downloadable files
type ContactExporter interface {
	Export(format ExportFormat, contacts []*models.ContactSubmission, generatedAt time.Time) (filename string, data []byte, err error)
}

// ContactExporterImpl implements ContactExporter
type ContactExporterImpl struct {
	loc *time.Location
}

func NewContactExporter(loc *time.Location) ContactExporter {
	if loc == nil {
		loc = time.UTC
	}
	return &ContactExporterImpl{loc: loc}
}

// ExportFilename returns contatos_YYYYMMDD_HHMMSS.<ext>
func ExportFilename(format ExportFormat, at time.Time) string {
	return fmt.Sprintf("contatos_%s.%s", at.Format("20060102_150405"), format)
}

func (e *ContactExporterImpl) Export(format ExportFormat, contacts []*models.ContactSubmission, generatedAt time.Time) (string, []byte, error) {
	generatedAt = generatedAt.In(e.loc)

	var data []byte
	var err error
	switch format {
	case ExportFormatCSV:
		data, err = e.csv(contacts)
	case ExportFormatPDF:
		data, err = e.pdf(contacts, generatedAt)
	case ExportFormatXLSX:
		data, err = e.xlsx(contacts)
	default:
		return "", nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return "", nil, err
	}
	return ExportFilename(format, generatedAt), data, nil
}

func (e *ContactExporterImpl) record(c *models.ContactSubmission) []string {
	status := "Não lida"
	if c.IsRead {
		status = "Lida"
	}
	attachment := "Nenhum"
	if c.HasAttachment() {
		attachment = c.AttachmentFilename()
	}
	return []string{
		c.Name,
		c.Email,
		c.WhatsApp,
		c.ProjectDescription,
		c.CreatedAt.In(e.loc).Format(utils.ExportDateLayout),
		status,
		attachment,
		c.Notes,
	}
}

func (e *ContactExporterImpl) csv(contacts []*models.ContactSubmission) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, c := range contacts {
		if err := w.Write(e.record(c)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *ContactExporterImpl) xlsx(contacts []*models.ContactSubmission) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), ExportSheetName); err != nil {
		return nil, err
	}
	header := exportHeader
	if err := xl.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return nil, err
	}
	for i, c := range contacts {
		record := e.record(c)
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := xl.SetSheetRow(ExportSheetName, cellRef, &record); err != nil {
			return nil, err
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *ContactExporterImpl) pdf(contacts []*models.ContactSubmission, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr("Relatório de Contatos"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr("Gerado em: "+generatedAt.Format(utils.SubmissionDateLayout)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Total de contatos: "+strconv.Itoa(len(contacts))), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Write(5, tr(label+": "))
		pdf.SetFont("Helvetica", "", 10)
		pdf.Write(5, tr(value))
		pdf.Ln(5)
	}

	for _, c := range contacts {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.MultiCell(0, 7, tr(c.Name), "", "L", false)

		status := "Não lida"
		if c.IsRead {
			status = "Lida"
		}
		line("Email", c.Email)
		line("WhatsApp", c.WhatsApp)
		line("Data", c.CreatedAt.In(e.loc).Format(utils.SubmissionDateLayout))
		line("Status", status)
		if c.HasAttachment() {
			line("Anexo", c.AttachmentFilename())
		}

		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 5, tr("Descrição do Projeto:"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(c.ProjectDescription), "", "L", false)

		if c.Notes != "" {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, 5, tr("Observações:"), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(c.Notes), "", "L", false)
		}
		pdf.Ln(8)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
