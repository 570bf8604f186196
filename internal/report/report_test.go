package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"findex/internal/compare"
	"findex/internal/storage"
)

func record(path, hash string, size int64) storage.FileRecord {
	return storage.FileRecord{Path: path, Hash: hash, Size: size}
}

func testResult() *compare.Result {
	left := []storage.FileRecord{
		record("same.txt", "h1", 4),
		record("changed.txt", "h2", 8),
		record("a/moved.txt", "h3", 16),
		record("removed.txt", "h4", 32),
		record("dup1.txt", "h5", 64),
		record("dup2.txt", "h5", 64),
	}
	right := []storage.FileRecord{
		record("same.txt", "h1", 4),
		record("changed.txt", "h9", 9),
		record("b/moved.txt", "h3", 16),
		record("added.txt", "h6", 128),
		record("dup3.txt", "h5", 64),
	}
	return compare.Classify(left, right)
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, Write(testResult(), path, Options{}))

	workbook, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	assert.Contains(t, sheets, "Removed Files")
	assert.Contains(t, sheets, "Modified Files")
	assert.Contains(t, sheets, "Added Files")
	assert.Contains(t, sheets, "Moved Files")
	assert.Contains(t, sheets, "Duplicate Content")
	assert.NotContains(t, sheets, "Unchanged Files")
	assert.NotContains(t, sheets, "Sheet1")

	value, err := workbook.GetCellValue("Moved Files", "A2")
	require.NoError(t, err)
	assert.Equal(t, "a/moved.txt", value)
	value, err = workbook.GetCellValue("Moved Files", "B2")
	require.NoError(t, err)
	assert.Equal(t, "b/moved.txt", value)

	value, err = workbook.GetCellValue("Removed Files", "A2")
	require.NoError(t, err)
	assert.Equal(t, "removed.txt", value)
	value, err = workbook.GetCellValue("Removed Files", "C2")
	require.NoError(t, err)
	assert.Equal(t, "h4", value)

	value, err = workbook.GetCellValue("Modified Files", "D2")
	require.NoError(t, err)
	assert.Equal(t, "h9", value)

	value, err = workbook.GetCellValue("Duplicate Content", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2", value)
	value, err = workbook.GetCellValue("Duplicate Content", "F2")
	require.NoError(t, err)
	assert.Equal(t, "h5", value)
}

func TestWriteIncludeUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, Write(testResult(), path, Options{IncludeUnchanged: true}))

	workbook, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer workbook.Close()

	assert.Contains(t, workbook.GetSheetList(), "Unchanged Files")
	value, err := workbook.GetCellValue("Unchanged Files", "A2")
	require.NoError(t, err)
	assert.Equal(t, "same.txt", value)
}

func TestWriteEmptyCategoryPlaceholder(t *testing.T) {
	result := compare.Classify(
		[]storage.FileRecord{record("same.txt", "h1", 4)},
		[]storage.FileRecord{record("same.txt", "h1", 4)},
	)

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, Write(result, path, Options{}))

	workbook, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer workbook.Close()

	value, err := workbook.GetCellValue("Removed Files", "A1")
	require.NoError(t, err)
	assert.Equal(t, "No removed files found.", value)
}
