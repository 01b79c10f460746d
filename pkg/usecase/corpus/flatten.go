package corpus

import (
	"context"
	"strings"

	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/Vamsi1807/AI-Call-Center/pkg/service/document"
	"github.com/Vamsi1807/AI-Call-Center/pkg/utils/logging"
)

const (
	documentMarker = "📁 File: "
	sheetMarker    = "📄 Sheet: "
	cellDelimiter  = " | "
)

// FlattenDocuments projects documents into corpus lines. Documents, sheets,
// rows and columns are emitted in the order given.
func FlattenDocuments(docs []*model.Document) []string {
	var lines []string
	for _, doc := range docs {
		lines = append(lines, flattenDocument(doc)...)
	}
	return lines
}

func flattenDocument(doc *model.Document) []string {
	lines := []string{documentMarker + doc.Name}
	for _, sheet := range doc.Sheets {
		lines = append(lines, sheetMarker+sheet.Name)
		for _, row := range sheet.Rows {
			lines = append(lines, flattenRow(row))
		}
		lines = append(lines, "")
	}
	return append(lines, "")
}

func flattenRow(row model.Row) string {
	cells := make([]string, len(row))
	for i, cell := range row {
		cells[i] = cell.Column + ": " + cell.Value.String()
	}
	return strings.Join(cells, cellDelimiter)
}

// Flatten opens every source in order and flattens those that parse. A
// source that fails is reported as an IngestionError and skipped.
func Flatten(ctx context.Context, sources []document.Source) ([]string, []string, []*model.IngestionError) {
	var (
		lines    []string
		names    []string
		failures []*model.IngestionError
	)

	for _, src := range sources {
		doc, err := src.Open(ctx)
		if err != nil {
			logging.From(ctx).Warn("skip document", "document", src.Name(), "error", err)
			failures = append(failures, &model.IngestionError{Document: src.Name(), Err: err})
			continue
		}
		lines = append(lines, flattenDocument(doc)...)
		names = append(names, doc.Name)
	}

	return lines, names, failures
}
