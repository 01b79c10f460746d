package repository

import (
	"context"

	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = goerr.New("record not found")

// Repository defines the interface for the corpus rebuild catalog
type Repository interface {
	// PutRebuild saves a rebuild record to the repository
	PutRebuild(ctx context.Context, record *model.RebuildRecord) error

	// GetRebuild retrieves a rebuild record by ID
	GetRebuild(ctx context.Context, id model.RebuildID) (*model.RebuildRecord, error)

	// LatestRebuild returns the record with the highest version, or nil if none exists
	LatestRebuild(ctx context.Context) (*model.RebuildRecord, error)

	// ListRebuilds retrieves rebuild records, newest first
	ListRebuilds(ctx context.Context, offset, limit int) ([]*model.RebuildRecord, error)

	// MarkSummaryUpdated flags that a summary was generated from the given rebuild
	MarkSummaryUpdated(ctx context.Context, id model.RebuildID) error
}
