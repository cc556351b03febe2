package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/amirphl/vitrine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportFixtures() []*models.ContactSubmission {
	created := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
	return []*models.ContactSubmission{
		{
			Name:               "Maria Silva",
			Email:              "maria@example.com",
			WhatsApp:           "(11) 91234-5678",
			ProjectDescription: "Loja virtual, com \"checkout\"",
			AttachmentPath:     "contact_attachments/2024/3/abc.pdf",
			AttachmentName:     "brief.pdf",
			IsRead:             true,
			Notes:              "retornar sexta",
			CreatedAt:          created,
		},
		{
			Name:               "João",
			Email:              "joao@example.com",
			WhatsApp:           "11912345678",
			ProjectDescription: "Site institucional",
			CreatedAt:          created.Add(time.Hour),
		},
	}
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2024, 3, 10, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "contatos_20240310_090507.csv", ExportFilename(ExportFormatCSV, at))
	assert.Equal(t, "contatos_20240310_090507.xlsx", ExportFilename(ExportFormatXLSX, at))
}

func TestContactExporterCSV(t *testing.T) {
	exporter := NewContactExporter(time.UTC)
	name, data, err := exporter.Export(ExportFormatCSV, exportFixtures(), time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "contatos_20240311_080000.csv", name)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Nome", "Email", "WhatsApp", "Descrição do Projeto", "Data de Contato", "Status", "Anexo", "Observações"}, records[0])
	assert.Equal(t, []string{"Maria Silva", "maria@example.com", "(11) 91234-5678", "Loja virtual, com \"checkout\"", "10/03/2024 14:30", "Lida", "brief.pdf", "retornar sexta"}, records[1])
	assert.Equal(t, "Não lida", records[2][5])
	assert.Equal(t, "Nenhum", records[2][6])
}

func TestContactExporterXLSX(t *testing.T) {
	exporter := NewContactExporter(time.UTC)
	_, data, err := exporter.Export(ExportFormatXLSX, exportFixtures(), time.Now())
	require.NoError(t, err)

	xl, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer xl.Close()

	rows, err := xl.GetRows(ExportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Nome", rows[0][0])
	assert.Equal(t, "João", rows[2][0])
}

func TestContactExporterPDF(t *testing.T) {
	exporter := NewContactExporter(time.UTC)
	name, data, err := exporter.Export(ExportFormatPDF, exportFixtures(), time.Now())
	require.NoError(t, err)
	assert.Contains(t, name, ".pdf")
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExportFormat(t *testing.T) {
	assert.True(t, ExportFormat("csv").Valid())
	assert.False(t, ExportFormat("docx").Valid())
	assert.Equal(t, "application/pdf", ExportFormatPDF.ContentType())
}
