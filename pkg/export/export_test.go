package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Reports for Lincoln-HS",
		Headers: []string{"Reference", "Status"},
		Rows: []map[string]string{
			{"Reference": "FR2026-AB12", "Status": "new"},
			{"Reference": "FR2026-CD34", "Status": "resolved"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Reference,Status\nFR2026-AB12,new\nFR2026-CD34,resolved\n", string(out))
}

func TestRenderersRequireHeaders(t *testing.T) {
	for _, f := range []Format{FormatCSV, FormatPDF, FormatXLSX} {
		r, err := For(f)
		require.NoError(t, err)
		_, err = r.Render(Dataset{})
		assert.Error(t, err, f)
	}
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"FR2026-CD34", "resolved"}, rows[2])
}

func TestPDFClip(t *testing.T) {
	e := &PDFExporter{maxCell: 5}
	assert.Equal(t, "abcd…", e.clip("abcdefgh"))
	assert.Equal(t, "abc…", e.clip(strings.Repeat("abc ", 4)[:8]))
	assert.Equal(t, "abc", e.clip("abc"))
	assert.Equal(t, "a b", e.clip("a\n  b"))
}
