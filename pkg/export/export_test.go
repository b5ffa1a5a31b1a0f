package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Histórico de presença",
		Headers: []string{"date", "event"},
		Rows: []map[string]string{
			{"date": "2024-05-10", "event": "Pelada de sexta"},
			{"date": "2024-05-17", "event": "Pelada, sexta"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "date,event\n2024-05-10,Pelada de sexta\n2024-05-17,\"Pelada, sexta\"\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestCSVExporterDelimiterAndBOM(t *testing.T) {
	out, err := NewCSVExporter(WithDelimiter(';'), WithBOM()).Render(sampleDataset())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Equal(t, "date;event\n2024-05-10;Pelada de sexta\n2024-05-17;Pelada, sexta\n", string(out[len(utf8BOM):]))
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	data := Dataset{
		Headers: []string{"event", "location"},
		Rows: []map[string]string{
			{"event": "=HYPERLINK(\"http://x\")", "location": "@Arena"},
			{"event": "-1+1", "location": "Quadra 2"},
		},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "event,location\n\"'=HYPERLINK(\"\"http://x\"\")\",'@Arena\n'-1+1,Quadra 2\n", string(out))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := For(FormatPDF).Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
