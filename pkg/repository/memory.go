package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Memory is a process-local Repository. Records are lost on restart.
type Memory struct {
	mu       sync.RWMutex
	rebuilds map[model.RebuildID]*model.RebuildRecord
}

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{
		rebuilds: make(map[model.RebuildID]*model.RebuildRecord),
	}
}

func (m *Memory) PutRebuild(ctx context.Context, record *model.RebuildRecord) error {
	if record.ID == "" {
		return goerr.New("rebuild record ID is empty")
	}

	copied := *record
	m.mu.Lock()
	m.rebuilds[record.ID] = &copied
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetRebuild(ctx context.Context, id model.RebuildID) (*model.RebuildRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.rebuilds[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "rebuild record not found", goerr.V("id", id))
	}
	copied := *record
	return &copied, nil
}

func (m *Memory) LatestRebuild(ctx context.Context) (*model.RebuildRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *model.RebuildRecord
	for _, record := range m.rebuilds {
		if latest == nil || record.Version > latest.Version {
			latest = record
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (m *Memory) ListRebuilds(ctx context.Context, offset, limit int) ([]*model.RebuildRecord, error) {
	m.mu.RLock()
	records := make([]*model.RebuildRecord, 0, len(m.rebuilds))
	for _, record := range m.rebuilds {
		copied := *record
		records = append(records, &copied)
	}
	m.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].Version > records[j].Version
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if offset >= len(records) {
		return []*model.RebuildRecord{}, nil
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records, nil
}

func (m *Memory) MarkSummaryUpdated(ctx context.Context, id model.RebuildID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.rebuilds[id]
	if !ok {
		return goerr.Wrap(ErrNotFound, "rebuild record not found", goerr.V("id", id))
	}
	record.SummaryUpdated = true
	return nil
}
