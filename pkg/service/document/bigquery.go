package document

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/Vamsi1807/AI-Call-Center/pkg/adapter"
	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/Vamsi1807/AI-Call-Center/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ErrQueryTooLarge is returned when a query would scan more bytes than allowed
var ErrQueryTooLarge = goerr.New("query scans too many bytes")

// QuerySource turns a BigQuery query result into a single-sheet document
type QuerySource struct {
	name      string
	sheetName string
	query     string
	maxBytes  int64
	bq        adapter.BigQuery
}

// QueryOption is a functional option for QuerySource
type QueryOption func(*QuerySource)

// WithMaxBytes rejects the query when its dry run reports more than n scanned
// bytes. Zero or less disables the check.
func WithMaxBytes(n int64) QueryOption {
	return func(s *QuerySource) {
		s.maxBytes = n
	}
}

// NewQuerySource creates a Source reading rows from a BigQuery query
func NewQuerySource(bq adapter.BigQuery, name, query string, opts ...QueryOption) *QuerySource {
	s := &QuerySource{
		name:      name,
		sheetName: "query",
		query:     query,
		bq:        bq,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *QuerySource) Name() string {
	return s.name
}

func (s *QuerySource) Open(ctx context.Context) (*model.Document, error) {
	if s.query == "" {
		return nil, goerr.New("query is empty", goerr.V("document", s.name))
	}

	scanned, err := s.bq.DryRun(ctx, s.query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to dry-run query", goerr.V("document", s.name))
	}
	logging.From(ctx).Debug("query dry run", "document", s.name, "bytes", scanned)
	if s.maxBytes > 0 && scanned > s.maxBytes {
		return nil, goerr.Wrap(ErrQueryTooLarge, "refusing to run query",
			goerr.V("document", s.name),
			goerr.V("bytes", scanned),
			goerr.V("max_bytes", s.maxBytes))
	}

	table, err := s.bq.QueryTable(ctx, s.query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read query result", goerr.V("document", s.name))
	}

	sheet := &model.Sheet{Name: s.sheetName}
	for _, values := range table.Rows {
		row := make(model.Row, 0, len(table.Columns))
		for i, column := range table.Columns {
			var v bigquery.Value
			if i < len(values) {
				v = values[i]
			}
			row = append(row, model.Cell{Column: column, Value: bigqueryValue(v)})
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return &model.Document{Name: s.name, Sheets: []*model.Sheet{sheet}}, nil
}

func bigqueryValue(v bigquery.Value) model.Value {
	switch x := v.(type) {
	case nil:
		return model.NullValue()
	case string:
		return model.StringValue(x)
	case bool:
		return model.BoolValue(x)
	case int64:
		return model.NumberValue(float64(x))
	case float64:
		return model.NumberValue(x)
	case time.Time:
		return model.StringValue(x.UTC().Format(time.RFC3339))
	case civil.Date:
		return model.StringValue(x.String())
	case civil.DateTime:
		return model.StringValue(x.String())
	case civil.Time:
		return model.StringValue(x.String())
	default:
		return model.StringValue(fmt.Sprint(x))
	}
}
