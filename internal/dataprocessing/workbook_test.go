package dataprocessing

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes a minimal two-year workbook shaped like the
// online spreadsheet and returns its path.
func buildWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "2024"))
	_, err := f.NewSheet("2025")
	require.NoError(t, err)
	_, err = f.NewSheet("Notes")
	require.NoError(t, err)

	header := []interface{}{"Date", "SKU", "Quantity", "Sales Value"}
	require.NoError(t, f.SetSheetRow("2024", "A1", &header))
	require.NoError(t, f.SetSheetRow("2024", "A2",
		&[]interface{}{"2024-03-01", "MUG-RED-11OZ", "2", "19.98"}))
	// Row 3 left empty on purpose.
	require.NoError(t, f.SetSheetRow("2024", "A4",
		&[]interface{}{"2024-03-02", "MUG-BLUE-11OZ", "1", "9.99"}))

	require.NoError(t, f.SetSheetRow("2025", "A1", &header))
	require.NoError(t, f.SetSheetRow("2025", "A2",
		&[]interface{}{"2025-01-04", "TEE-BLK-M", "3", "35.97"}))

	require.NoError(t, f.SetSheetRow("Notes", "A1",
		&[]interface{}{"scratch", "content"}))

	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadWorkbook(t *testing.T) {
	rows, err := ReadWorkbook(buildWorkbook(t))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Year sheets come back in ascending order; the Notes sheet is skipped.
	assert.Equal(t, "2024", rows[0].Source)
	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, "MUG-RED-11OZ", rows[0].Cells["SKU"])
	assert.Equal(t, "19.98", rows[0].Cells["Sales Value"])

	// The empty spreadsheet row is dropped but numbering still matches
	// what the spreadsheet UI shows.
	assert.Equal(t, "2024", rows[1].Source)
	assert.Equal(t, 4, rows[1].Number)
	assert.Equal(t, "MUG-BLUE-11OZ", rows[1].Cells["SKU"])

	assert.Equal(t, "2025", rows[2].Source)
	assert.Equal(t, "TEE-BLK-M", rows[2].Cells["SKU"])
}

func TestReadWorkbookFeedsNormalizer(t *testing.T) {
	rows, err := ReadWorkbook(buildWorkbook(t))
	require.NoError(t, err)

	ds := NewNormalizer(DefaultNormalizerConfig()).Normalize(rows, time.Now())
	require.Len(t, ds.Records, 3)
	assert.Empty(t, ds.Unrecognized)
	assert.Equal(t, []int{2024, 2025}, ds.Years())
}

func TestReadWorkbookNoYearSheets(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "Summary"))
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, err := ReadWorkbook(path)
	assert.ErrorContains(t, err, "no year worksheets")
}

func TestReadWorkbookMissingFile(t *testing.T) {
	_, err := ReadWorkbook(filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.ErrorContains(t, err, "failed to open workbook")
}
