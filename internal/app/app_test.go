package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"findex/internal/config"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func runIndexCommand(t *testing.T, ctx context.Context, root, dbPath string) {
	t.Helper()
	cfg := config.Config{
		Command: config.CommandIndex,
		Index:   config.IndexConfig{DBPath: dbPath, Root: root, Algorithm: "sha1"},
	}
	require.NoError(t, New(cfg).Run(ctx))
}

func TestIndexCompareReportPipeline(t *testing.T) {
	ctx := context.Background()
	work := t.TempDir()

	rootA := filepath.Join(work, "root-a")
	rootB := filepath.Join(work, "root-b")
	writeTree(t, rootA, map[string]string{
		"same.txt":    "same content",
		"old/pic.jpg": "binary-ish",
		"delete.me":   "obsolete",
	})
	writeTree(t, rootB, map[string]string{
		"same.txt":    "same content",
		"new/pic.jpg": "binary-ish",
		"fresh.txt":   "brand new",
	})

	dbA := filepath.Join(work, "a.db")
	dbB := filepath.Join(work, "b.db")
	runIndexCommand(t, ctx, rootA, dbA)
	runIndexCommand(t, ctx, rootB, dbB)

	comparisonDB := filepath.Join(work, "comparison.db")
	compareCfg := config.Config{
		Command: config.CommandCompare,
		Compare: config.CompareConfig{DBPath: comparisonDB, Left: dbA, Right: dbB},
	}
	require.NoError(t, New(compareCfg).Run(ctx))

	out := filepath.Join(work, "drift.xlsx")
	reportCfg := config.Config{
		Command: config.CommandReport,
		Report:  config.ReportConfig{DBPath: comparisonDB, Out: out},
	}
	require.NoError(t, New(reportCfg).Run(ctx))

	workbook, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer workbook.Close()

	value, err := workbook.GetCellValue("Moved Files", "A2")
	require.NoError(t, err)
	assert.Equal(t, "old/pic.jpg", value)
	value, err = workbook.GetCellValue("Moved Files", "B2")
	require.NoError(t, err)
	assert.Equal(t, "new/pic.jpg", value)

	value, err = workbook.GetCellValue("Removed Files", "A2")
	require.NoError(t, err)
	assert.Equal(t, "delete.me", value)

	value, err = workbook.GetCellValue("Added Files", "A2")
	require.NoError(t, err)
	assert.Equal(t, "fresh.txt", value)
}

func TestCompareMissingIndex(t *testing.T) {
	work := t.TempDir()
	cfg := config.Config{
		Command: config.CommandCompare,
		Compare: config.CompareConfig{
			DBPath: filepath.Join(work, "comparison.db"),
			Left:   filepath.Join(work, "absent-a.db"),
			Right:  filepath.Join(work, "absent-b.db"),
		},
	}
	err := New(cfg).Run(context.Background())
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestReportMissingComparison(t *testing.T) {
	work := t.TempDir()
	cfg := config.Config{
		Command: config.CommandReport,
		Report: config.ReportConfig{
			DBPath: filepath.Join(work, "absent.db"),
			Out:    filepath.Join(work, "out.xlsx"),
		},
	}
	err := New(cfg).Run(context.Background())
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestUnknownCommand(t *testing.T) {
	err := New(config.Config{Command: "bogus"}).Run(context.Background())
	assert.Error(t, err)
}
