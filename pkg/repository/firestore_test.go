package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/Vamsi1807/AI-Call-Center/pkg/repository"
	"github.com/m-mizutani/gt"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	repo, err := repository.New(context.Background(), projectID, databaseID)
	gt.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func newRecord(version uint64, createdAt time.Time) *model.RebuildRecord {
	return &model.RebuildRecord{
		ID:        model.NewRebuildID(),
		Version:   version,
		Documents: []string{"faq.xlsx", "locations.xlsx"},
		LineCount: 12,
		CreatedAt: createdAt,
	}
}

func testRepository(t *testing.T, repo repository.Repository) {
	ctx := context.Background()

	t.Run("put and get", func(t *testing.T) {
		record := newRecord(1, time.Now())
		record.IngestionErrors = []string{"broken.xlsx: not a zip file"}
		gt.NoError(t, repo.PutRebuild(ctx, record))

		retrieved, err := repo.GetRebuild(ctx, record.ID)
		gt.NoError(t, err)
		gt.V(t, retrieved).NotNil()
		gt.Equal(t, retrieved.ID, record.ID)
		gt.Equal(t, retrieved.Version, record.Version)
		gt.Equal(t, retrieved.Documents, record.Documents)
		gt.Equal(t, retrieved.IngestionErrors, record.IngestionErrors)
		gt.False(t, retrieved.SummaryUpdated)
	})

	t.Run("get not found", func(t *testing.T) {
		_, err := repo.GetRebuild(ctx, model.NewRebuildID())
		gt.Error(t, err)
		gt.True(t, errors.Is(err, repository.ErrNotFound))
	})

	t.Run("put without ID", func(t *testing.T) {
		gt.Error(t, repo.PutRebuild(ctx, &model.RebuildRecord{Version: 1}))
	})

	t.Run("latest has highest version", func(t *testing.T) {
		now := time.Now()
		older := newRecord(100, now.Add(-time.Hour))
		newer := newRecord(101, now)
		gt.NoError(t, repo.PutRebuild(ctx, newer))
		gt.NoError(t, repo.PutRebuild(ctx, older))

		latest, err := repo.LatestRebuild(ctx)
		gt.NoError(t, err)
		gt.V(t, latest).NotNil()
		gt.Equal(t, latest.ID, newer.ID)
	})

	t.Run("list is newest first", func(t *testing.T) {
		records, err := repo.ListRebuilds(ctx, 0, 10)
		gt.NoError(t, err)
		gt.A(t, records).Longer(1)
		for i := 0; i < len(records)-1; i++ {
			gt.False(t, records[i].CreatedAt.Before(records[i+1].CreatedAt))
		}
	})

	t.Run("list beyond offset is empty", func(t *testing.T) {
		records, err := repo.ListRebuilds(ctx, 10000, 10)
		gt.NoError(t, err)
		gt.A(t, records).Length(0)
	})

	t.Run("mark summary updated", func(t *testing.T) {
		record := newRecord(200, time.Now())
		gt.NoError(t, repo.PutRebuild(ctx, record))
		gt.NoError(t, repo.MarkSummaryUpdated(ctx, record.ID))

		retrieved, err := repo.GetRebuild(ctx, record.ID)
		gt.NoError(t, err)
		gt.True(t, retrieved.SummaryUpdated)
	})
}

func TestMemoryRepository(t *testing.T) {
	testRepository(t, repository.NewMemory())
}

func TestMemoryLatestEmpty(t *testing.T) {
	latest, err := repository.NewMemory().LatestRebuild(context.Background())
	gt.NoError(t, err)
	gt.Nil(t, latest)
}

func TestMemoryMarkSummaryNotFound(t *testing.T) {
	err := repository.NewMemory().MarkSummaryUpdated(context.Background(), model.NewRebuildID())
	gt.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestFirestoreRepository(t *testing.T) {
	testRepository(t, setupFirestore(t))
}
