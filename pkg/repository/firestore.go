package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const rebuildCollection = "rebuilds"

// Firestore implements Repository using Cloud Firestore
type Firestore struct {
	client *firestore.Client
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID),
			goerr.V("database", databaseID))
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutRebuild(ctx context.Context, record *model.RebuildRecord) error {
	if record.ID == "" {
		return goerr.New("rebuild record ID is empty")
	}

	if _, err := r.client.Collection(rebuildCollection).Doc(string(record.ID)).Set(ctx, record); err != nil {
		return goerr.Wrap(err, "failed to put rebuild record", goerr.V("id", record.ID))
	}
	return nil
}

func (r *Firestore) GetRebuild(ctx context.Context, id model.RebuildID) (*model.RebuildRecord, error) {
	snap, err := r.client.Collection(rebuildCollection).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "rebuild record not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get rebuild record", goerr.V("id", id))
	}

	var record model.RebuildRecord
	if err := snap.DataTo(&record); err != nil {
		return nil, goerr.Wrap(err, "failed to decode rebuild record", goerr.V("id", id))
	}
	return &record, nil
}

func (r *Firestore) LatestRebuild(ctx context.Context) (*model.RebuildRecord, error) {
	iter := r.client.Collection(rebuildCollection).
		OrderBy("Version", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query latest rebuild record")
	}

	var record model.RebuildRecord
	if err := snap.DataTo(&record); err != nil {
		return nil, goerr.Wrap(err, "failed to decode rebuild record", goerr.V("id", snap.Ref.ID))
	}
	return &record, nil
}

func (r *Firestore) ListRebuilds(ctx context.Context, offset, limit int) ([]*model.RebuildRecord, error) {
	query := r.client.Collection(rebuildCollection).
		OrderBy("CreatedAt", firestore.Desc).
		Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list rebuild records")
	}

	records := make([]*model.RebuildRecord, 0, len(snaps))
	for _, snap := range snaps {
		var record model.RebuildRecord
		if err := snap.DataTo(&record); err != nil {
			return nil, goerr.Wrap(err, "failed to decode rebuild record", goerr.V("id", snap.Ref.ID))
		}
		records = append(records, &record)
	}
	return records, nil
}

func (r *Firestore) MarkSummaryUpdated(ctx context.Context, id model.RebuildID) error {
	_, err := r.client.Collection(rebuildCollection).Doc(string(id)).Update(ctx, []firestore.Update{
		{Path: "SummaryUpdated", Value: true},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "rebuild record not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to update rebuild record", goerr.V("id", id))
	}
	return nil
}
