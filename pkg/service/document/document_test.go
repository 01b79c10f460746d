package document_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/Vamsi1807/AI-Call-Center/pkg/adapter"
	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/Vamsi1807/AI-Call-Center/pkg/service/document"
	"github.com/m-mizutani/gt"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]any, order []string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			gt.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			gt.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			gt.NoError(t, err)
			values := row
			gt.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}

	buf, err := f.WriteToBuffer()
	gt.NoError(t, err)
	return buf.Bytes()
}

func TestParseWorkbook(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"Staff": {
			{"Name", "Role", "Years"},
			{"Ann", "Tutor", 5},
			{"Bob", "Admin", 2.5},
		},
		"FAQ": {
			{"Q", "A"},
			{"Hours?", "9-5"},
		},
	}, []string{"Staff", "FAQ"})

	doc, err := document.ParseWorkbook("school.xlsx", bytes.NewReader(data))
	gt.NoError(t, err)
	gt.Equal(t, doc.Name, "school.xlsx")
	gt.A(t, doc.Sheets).Length(2)
	gt.Equal(t, doc.Sheets[0].Name, "Staff")
	gt.Equal(t, doc.Sheets[1].Name, "FAQ")

	staff := doc.Sheets[0]
	gt.A(t, staff.Rows).Length(2)
	gt.Equal(t, staff.Rows[0][0].Column, "Name")
	gt.Equal(t, staff.Rows[0][0].Value.String(), "Ann")
	gt.Equal(t, staff.Rows[0][2].Column, "Years")
	gt.Equal(t, staff.Rows[0][2].Value.Kind, model.ValueNumber)
	gt.Equal(t, staff.Rows[0][2].Value.String(), "5")
	gt.Equal(t, staff.Rows[1][2].Value.String(), "2.5")

	faq := doc.Sheets[1]
	gt.A(t, faq.Rows).Length(1)
	gt.Equal(t, faq.Rows[0][1].Value.String(), "9-5")
}

func TestParseWorkbookBlankCells(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"Data": {
			{"A", "", "A"},
			{"x", nil, "y"},
			{nil, nil, nil},
			{nil, "z", nil},
		},
	}, []string{"Data"})

	doc, err := document.ParseWorkbook("blank.xlsx", bytes.NewReader(data))
	gt.NoError(t, err)
	gt.A(t, doc.Sheets).Length(1)

	rows := doc.Sheets[0].Rows
	gt.A(t, rows).Length(2)
	gt.Equal(t, rows[0][0].Column, "A")
	gt.Equal(t, rows[0][1].Column, "Unnamed: 1")
	gt.Equal(t, rows[0][2].Column, "A.1")
	gt.Equal(t, rows[0][1].Value.Kind, model.ValueNull)
	gt.Equal(t, rows[1][0].Value.Kind, model.ValueNull)
	gt.Equal(t, rows[1][1].Value.String(), "z")
}

func TestParseWorkbookHeaderOnly(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"Empty": {{"Only", "Header"}},
	}, []string{"Empty"})

	doc, err := document.ParseWorkbook("empty.xlsx", bytes.NewReader(data))
	gt.NoError(t, err)
	gt.A(t, doc.Sheets).Length(1)
	gt.A(t, doc.Sheets[0].Rows).Length(0)
}

func TestParseWorkbookCorrupt(t *testing.T) {
	_, err := document.ParseWorkbook("broken.xlsx", strings.NewReader("not a zip"))
	gt.Error(t, err)
}

func TestParseYAML(t *testing.T) {
	src := `
Policies:
  - Topic: Hours
    Detail: 9-5
    Remote: true
  - Topic: Leave
    Detail: 20 days
    Days: 20
    Note: ~
Contacts:
  - Name: Front desk
    Ext: 100
`
	doc, err := document.ParseYAML("policy.yaml", strings.NewReader(src))
	gt.NoError(t, err)
	gt.A(t, doc.Sheets).Length(2)
	gt.Equal(t, doc.Sheets[0].Name, "Policies")
	gt.Equal(t, doc.Sheets[1].Name, "Contacts")

	rows := doc.Sheets[0].Rows
	gt.A(t, rows).Length(2)
	gt.Equal(t, rows[0][0].Column, "Topic")
	gt.Equal(t, rows[0][1].Column, "Detail")
	gt.Equal(t, rows[0][2].Value.Kind, model.ValueBool)
	gt.Equal(t, rows[0][2].Value.String(), "true")
	gt.Equal(t, rows[1][2].Value.Kind, model.ValueNumber)
	gt.Equal(t, rows[1][2].Value.String(), "20")
	gt.Equal(t, rows[1][3].Value.Kind, model.ValueNull)
	gt.Equal(t, doc.Sheets[1].Rows[0][1].Value.String(), "100")
}

func TestParseYAMLEmpty(t *testing.T) {
	doc, err := document.ParseYAML("empty.yaml", strings.NewReader(""))
	gt.NoError(t, err)
	gt.A(t, doc.Sheets).Length(0)

	doc, err = document.ParseYAML("null.yaml", strings.NewReader("Sheet:\n"))
	gt.NoError(t, err)
	gt.A(t, doc.Sheets).Length(1)
	gt.A(t, doc.Sheets[0].Rows).Length(0)
}

func TestParseYAMLInvalidShape(t *testing.T) {
	testCases := map[string]string{
		"root is a list":     "- a\n- b\n",
		"sheet is a scalar":  "Sheet: hello\n",
		"row is a scalar":    "Sheet:\n  - hello\n",
		"cell is a mapping":  "Sheet:\n  - A:\n      nested: 1\n",
		"malformed document": "Sheet: [\n",
	}
	for name, src := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := document.ParseYAML("bad.yaml", strings.NewReader(src))
			gt.Error(t, err)
		})
	}
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt", ".hidden.yaml", "~$lock.xlsx"} {
		gt.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("S:\n  - A: 1\n"), 0o644))
	}
	gt.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	sources, err := document.Dir(dir)
	gt.NoError(t, err)
	gt.A(t, sources).Length(2)
	gt.Equal(t, sources[0].Name(), "a.yml")
	gt.Equal(t, sources[1].Name(), "b.yaml")

	doc, err := sources[0].Open(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, doc.Name, "a.yml")
	gt.Equal(t, doc.RowCount(), 1)
}

func TestDirMissing(t *testing.T) {
	sources, err := document.Dir(filepath.Join(t.TempDir(), "nothing"))
	gt.NoError(t, err)
	gt.A(t, sources).Length(0)
}

func TestFileSourceUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	gt.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	_, err := document.FileSource(path).Open(context.Background())
	gt.Error(t, err)
	gt.True(t, errors.Is(err, document.ErrUnsupportedFormat))
}

func TestImport(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "data")

	path := filepath.Join(src, "faq.yaml")
	gt.NoError(t, os.WriteFile(path, []byte("FAQ:\n  - Q: a\n"), 0o644))

	imported, err := document.Import(dst, []string{path})
	gt.NoError(t, err)
	gt.A(t, imported).Length(1)

	data, err := os.ReadFile(filepath.Join(dst, "faq.yaml"))
	gt.NoError(t, err)
	gt.Equal(t, string(data), "FAQ:\n  - Q: a\n")

	// same name replaces the earlier upload
	gt.NoError(t, os.WriteFile(path, []byte("FAQ:\n  - Q: b\n"), 0o644))
	_, err = document.Import(dst, []string{path})
	gt.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(dst, "faq.yaml"))
	gt.NoError(t, err)
	gt.Equal(t, string(data), "FAQ:\n  - Q: b\n")

	_, err = document.Import(dst, []string{filepath.Join(src, "x.csv")})
	gt.True(t, errors.Is(err, document.ErrUnsupportedFormat))
}

func TestImportSameFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "faq.yaml")
	gt.NoError(t, os.WriteFile(path, []byte("FAQ:\n  - Q: a\n"), 0o644))

	imported, err := document.Import(dir, []string{path})
	gt.NoError(t, err)
	gt.A(t, imported).Length(1)

	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.Equal(t, string(data), "FAQ:\n  - Q: a\n")

	// the data dir holds nothing but the original file
	entries, err := os.ReadDir(dir)
	gt.NoError(t, err)
	gt.A(t, entries).Length(1)
}

type mockBigQuery struct {
	table   *adapter.QueryTable
	err     error
	bytes   int64
	dryErr  error
	queried bool
}

func (m *mockBigQuery) DryRun(ctx context.Context, query string) (int64, error) {
	return m.bytes, m.dryErr
}

func (m *mockBigQuery) QueryTable(ctx context.Context, query string) (*adapter.QueryTable, error) {
	m.queried = true
	return m.table, m.err
}

func TestQuerySource(t *testing.T) {
	bq := &mockBigQuery{
		table: &adapter.QueryTable{
			Columns: []string{"course", "seats", "open", "note"},
			Rows: [][]bigquery.Value{
				{"Math", int64(30), true, nil},
				{"Art", 12.5, false, "evening"},
			},
		},
	}

	doc, err := document.NewQuerySource(bq, "courses", "SELECT 1").Open(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, doc.Name, "courses")
	gt.A(t, doc.Sheets).Length(1)

	rows := doc.Sheets[0].Rows
	gt.A(t, rows).Length(2)
	gt.Equal(t, rows[0][1].Value.String(), "30")
	gt.Equal(t, rows[0][2].Value.String(), "true")
	gt.Equal(t, rows[0][3].Value.Kind, model.ValueNull)
	gt.Equal(t, rows[1][1].Value.String(), "12.5")
	gt.Equal(t, rows[1][3].Value.String(), "evening")
}

func TestQuerySourceError(t *testing.T) {
	bq := &mockBigQuery{err: errors.New("quota")}
	_, err := document.NewQuerySource(bq, "courses", "SELECT 1").Open(context.Background())
	gt.Error(t, err)

	_, err = document.NewQuerySource(bq, "courses", "").Open(context.Background())
	gt.Error(t, err)
}

func TestQuerySourceScanLimit(t *testing.T) {
	table := &adapter.QueryTable{
		Columns: []string{"course"},
		Rows:    [][]bigquery.Value{{"Math"}},
	}

	t.Run("under the limit", func(t *testing.T) {
		bq := &mockBigQuery{table: table, bytes: 1024}
		doc, err := document.NewQuerySource(bq, "courses", "SELECT 1", document.WithMaxBytes(2048)).Open(context.Background())
		gt.NoError(t, err)
		gt.A(t, doc.Sheets[0].Rows).Length(1)
		gt.True(t, bq.queried)
	})

	t.Run("over the limit", func(t *testing.T) {
		bq := &mockBigQuery{table: table, bytes: 4096}
		_, err := document.NewQuerySource(bq, "courses", "SELECT 1", document.WithMaxBytes(2048)).Open(context.Background())
		gt.True(t, errors.Is(err, document.ErrQueryTooLarge))
		gt.False(t, bq.queried)
	})

	t.Run("no limit", func(t *testing.T) {
		bq := &mockBigQuery{table: table, bytes: 1 << 40}
		_, err := document.NewQuerySource(bq, "courses", "SELECT 1").Open(context.Background())
		gt.NoError(t, err)
		gt.True(t, bq.queried)
	})

	t.Run("dry run fails", func(t *testing.T) {
		bq := &mockBigQuery{table: table, dryErr: errors.New("syntax error")}
		_, err := document.NewQuerySource(bq, "courses", "SELEC 1").Open(context.Background())
		gt.Error(t, err)
		gt.False(t, bq.queried)
	})
}
