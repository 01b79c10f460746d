package adapter

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BigQuery is an interface for reading tabular query results
type BigQuery interface {
	// DryRun executes a query in dry-run mode and returns the number of bytes that will be scanned
	DryRun(ctx context.Context, query string) (int64, error)

	// QueryTable runs a query and returns its rows with columns in schema order
	QueryTable(ctx context.Context, query string) (*QueryTable, error)
}

// QueryTable is a query result. Each row holds one value per column, in
// the same order as Columns.
type QueryTable struct {
	Columns []string
	Rows    [][]bigquery.Value
}

type bigqueryClient struct {
	client  *bigquery.Client
	maxRows int
}

// BigQueryOption is a functional option for BigQuery client
type BigQueryOption func(*bigqueryClient)

// WithMaxRows caps the number of rows read from a single query
func WithMaxRows(n int) BigQueryOption {
	return func(bq *bigqueryClient) {
		bq.maxRows = n
	}
}

// NewBigQuery creates a new BigQuery client
func NewBigQuery(ctx context.Context, projectID string, clientOpts []option.ClientOption, opts ...BigQueryOption) (BigQuery, error) {
	client, err := bigquery.NewClient(ctx, projectID, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	bq := &bigqueryClient{
		client:  client,
		maxRows: 10000,
	}

	for _, opt := range opts {
		opt(bq)
	}

	return bq, nil
}

// DryRun executes a query in dry-run mode and returns the number of bytes that will be scanned
func (bq *bigqueryClient) DryRun(ctx context.Context, query string) (int64, error) {
	q := bq.client.Query(query)
	q.DryRun = true

	job, err := q.Run(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to run dry-run query")
	}

	status := job.LastStatus()
	if status == nil || status.Statistics == nil {
		return 0, goerr.New("no statistics available from dry-run")
	}

	return status.Statistics.TotalBytesProcessed, nil
}

func (bq *bigqueryClient) QueryTable(ctx context.Context, query string) (*QueryTable, error) {
	it, err := bq.client.Query(query).Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run query")
	}

	table := &QueryTable{}
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate query result")
		}
		if len(table.Rows) >= bq.maxRows {
			return nil, goerr.New("query result exceeds row limit", goerr.V("limit", bq.maxRows))
		}
		table.Rows = append(table.Rows, row)
	}

	// Schema is populated once the iterator has fetched the first page
	for _, field := range it.Schema {
		table.Columns = append(table.Columns, field.Name)
	}

	return table, nil
}
