// Package report renders a classification result to an xlsx workbook.
package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"findex/internal/compare"
)

// Column widths shared by all worksheets.
const (
	colWidthPath  = 130
	colWidthSize  = 15
	colWidthCount = 10
	colWidthHash  = 50
)

// Options configures workbook rendering.
type Options struct {
	// IncludeUnchanged adds a worksheet for unchanged files, which tends to
	// dominate the workbook on similar trees and is off by default.
	IncludeUnchanged bool
}

type sheet struct {
	name    string
	headers []string
	widths  []float64
	hashCol int // 1-based column carrying the digest
	rows    [][]any
}

// Write renders result into an xlsx workbook at path, one worksheet per
// category plus a sheet for ambiguous duplicate groups.
func Write(result *compare.Result, path string, opts Options) error {
	sheets := []sheet{
		filesSheet("Removed Files", result, compare.CategoryRemoved, func(r compare.Row) []any {
			return []any{r.PathA, r.SizeA, r.Hash}
		}),
		{
			name:    "Modified Files",
			headers: []string{"Path", "Size 1 (Bytes)", "Size 2 (Bytes)", "Checksum 2"},
			widths:  []float64{colWidthPath, colWidthSize, colWidthSize, colWidthHash},
			hashCol: 4,
			rows: categoryRows(result, compare.CategoryModified, func(r compare.Row) []any {
				return []any{r.PathA, r.SizeA, r.SizeB, r.Hash}
			}),
		},
		filesSheet("Added Files", result, compare.CategoryAdded, func(r compare.Row) []any {
			return []any{r.PathB, r.SizeB, r.Hash}
		}),
		{
			name:    "Moved Files",
			headers: []string{"Original Location (Index 1)", "New Location (Index 2)", "Size (Bytes)", "Checksum"},
			widths:  []float64{colWidthPath, colWidthPath, colWidthSize, colWidthHash},
			hashCol: 4,
			rows: categoryRows(result, compare.CategoryMoved, func(r compare.Row) []any {
				return []any{r.PathA, r.PathB, r.SizeA, r.Hash}
			}),
		},
		duplicatesSheet(result),
	}
	if opts.IncludeUnchanged {
		sheets = append(sheets, filesSheet("Unchanged Files", result, compare.CategoryUnchanged, func(r compare.Row) []any {
			return []any{r.PathB, r.SizeB, r.Hash}
		}))
	}

	workbook := excelize.NewFile()
	defer workbook.Close()

	headerStyle, err := workbook.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	hashStyle, err := workbook.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Courier New", Size: 10},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create hash style: %w", err)
	}

	for _, s := range sheets {
		if err := writeSheet(workbook, s, headerStyle, hashStyle); err != nil {
			return err
		}
	}

	// Drop the default sheet so the workbook opens on the first category.
	index, err := workbook.GetSheetIndex(sheets[0].name)
	if err != nil {
		return fmt.Errorf("resolve first sheet: %w", err)
	}
	workbook.SetActiveSheet(index)
	if err := workbook.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	if err := workbook.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func filesSheet(name string, result *compare.Result, category compare.Category, project func(compare.Row) []any) sheet {
	return sheet{
		name:    name,
		headers: []string{"Path", "Size (Bytes)", "Checksum"},
		widths:  []float64{colWidthPath, colWidthSize, colWidthHash},
		hashCol: 3,
		rows:    categoryRows(result, category, project),
	}
}

func categoryRows(result *compare.Result, category compare.Category, project func(compare.Row) []any) [][]any {
	var rows [][]any
	for _, row := range result.Rows {
		if row.Category == category {
			rows = append(rows, project(row))
		}
	}
	return rows
}

func duplicatesSheet(result *compare.Result) sheet {
	rows := make([][]any, 0, len(result.Groups))
	for _, group := range result.Groups {
		rows = append(rows, []any{
			len(group.PathsA),
			strings.Join(group.PathsA, "\n"),
			len(group.PathsB),
			strings.Join(group.PathsB, "\n"),
			group.Size,
			group.Hash,
		})
	}
	return sheet{
		name: "Duplicate Content",
		headers: []string{
			"Count (Index 1)", "Paths (Index 1)",
			"Count (Index 2)", "Paths (Index 2)",
			"Size (Bytes)", "Checksum",
		},
		widths:  []float64{colWidthCount, colWidthPath, colWidthCount, colWidthPath, colWidthSize, colWidthHash},
		hashCol: 6,
		rows:    rows,
	}
}

func writeSheet(workbook *excelize.File, s sheet, headerStyle, hashStyle int) error {
	if _, err := workbook.NewSheet(s.name); err != nil {
		return fmt.Errorf("create worksheet %s: %w", s.name, err)
	}

	if len(s.rows) == 0 {
		if err := workbook.SetCellValue(s.name, "A1", fmt.Sprintf("No %s found.", strings.ToLower(s.name))); err != nil {
			return fmt.Errorf("write placeholder for %s: %w", s.name, err)
		}
		return nil
	}

	for col, width := range s.widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("resolve column %d: %w", col+1, err)
		}
		if err := workbook.SetColWidth(s.name, name, name, width); err != nil {
			return fmt.Errorf("set column width for %s: %w", s.name, err)
		}
	}

	for col, header := range s.headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("resolve header cell: %w", err)
		}
		if err := workbook.SetCellValue(s.name, cell, header); err != nil {
			return fmt.Errorf("write header for %s: %w", s.name, err)
		}
		if err := workbook.SetCellStyle(s.name, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("style header for %s: %w", s.name, err)
		}
	}

	for i, values := range s.rows {
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("resolve cell: %w", err)
			}
			if err := workbook.SetCellValue(s.name, cell, value); err != nil {
				return fmt.Errorf("write row in %s: %w", s.name, err)
			}
			if col+1 == s.hashCol {
				if err := workbook.SetCellStyle(s.name, cell, cell, hashStyle); err != nil {
					return fmt.Errorf("style digest cell in %s: %w", s.name, err)
				}
			}
		}
	}

	return nil
}
