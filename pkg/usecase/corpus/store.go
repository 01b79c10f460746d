// Package corpus builds, stores and summarizes the flattened knowledge corpus.
package corpus

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vamsi1807/AI-Call-Center/pkg/adapter"
	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/Vamsi1807/AI-Call-Center/pkg/repository"
	"github.com/Vamsi1807/AI-Call-Center/pkg/service/document"
	"github.com/Vamsi1807/AI-Call-Center/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Store holds the current corpus and summary. Readers always see a complete
// corpus: a rebuild swaps the whole value at once.
type Store struct {
	storage adapter.Storage
	repo    repository.Repository
	now     func() time.Time

	corpus  atomic.Pointer[model.Corpus]
	summary atomic.Pointer[model.Summary]

	// rebuildMu serializes writers
	rebuildMu sync.Mutex
	version   uint64
	latest    model.RebuildID
}

// Option is a functional option for Store
type Option func(*Store)

// WithRepository records every rebuild in the given catalog
func WithRepository(repo repository.Repository) Option {
	return func(s *Store) {
		s.repo = repo
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store persisting artifacts to storage
func NewStore(storage adapter.Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		repo:    repository.NewMemory(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RebuildResult is the outcome of a rebuild. The corpus is always replaced;
// ingestion and persistence failures are reported alongside it.
type RebuildResult struct {
	Record          *model.RebuildRecord
	Corpus          *model.Corpus
	IngestionErrors []*model.IngestionError
	PersistError    error
}

// Rebuild flattens all sources and replaces the current corpus with the
// result
func (s *Store) Rebuild(ctx context.Context, sources []document.Source) *RebuildResult {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	lines, names, failures := Flatten(ctx, sources)

	s.version++
	now := s.now()
	corpus := &model.Corpus{
		Lines:       lines,
		Version:     s.version,
		GeneratedAt: now,
	}
	s.corpus.Store(corpus)

	record := &model.RebuildRecord{
		ID:        model.NewRebuildID(),
		Version:   corpus.Version,
		Documents: names,
		LineCount: len(lines),
		CreatedAt: now,
	}
	for _, f := range failures {
		record.IngestionErrors = append(record.IngestionErrors, f.Error())
	}
	s.latest = record.ID

	result := &RebuildResult{
		Record:          record,
		Corpus:          corpus,
		IngestionErrors: failures,
	}

	var persistErrs []error
	if err := s.write(ctx, model.CorpusArtifact, corpus.Text()); err != nil {
		persistErrs = append(persistErrs, err)
	}
	if err := s.repo.PutRebuild(ctx, record); err != nil {
		persistErrs = append(persistErrs, goerr.Wrap(err, "failed to record rebuild", goerr.V("rebuild_id", record.ID)))
	}
	if len(persistErrs) > 0 {
		result.PersistError = errors.Join(persistErrs...)
		logging.From(ctx).Error("failed to persist corpus", "error", result.PersistError)
	}

	logging.From(ctx).Info("corpus rebuilt",
		"version", corpus.Version,
		"documents", len(names),
		"lines", len(lines),
		"ingestion_errors", len(failures))

	return result
}

// Corpus returns the current corpus, or nil if none was built yet
func (s *Store) Corpus() *model.Corpus {
	return s.corpus.Load()
}

// Summary returns the current summary, or nil if none was generated yet
func (s *Store) Summary() *model.Summary {
	return s.summary.Load()
}

// SetSummary replaces the summary and persists it. The in-memory summary is
// updated even when persisting fails.
func (s *Store) SetSummary(ctx context.Context, text string) error {
	s.summary.Store(&model.Summary{Text: text, GeneratedAt: s.now()})

	if err := s.write(ctx, model.SummaryArtifact, text); err != nil {
		logging.From(ctx).Error("failed to persist summary", "error", err)
		return err
	}

	s.rebuildMu.Lock()
	latest := s.latest
	s.rebuildMu.Unlock()
	if latest != "" {
		if err := s.repo.MarkSummaryUpdated(ctx, latest); err != nil {
			logging.From(ctx).Warn("failed to mark summary in catalog", "rebuild_id", latest, "error", err)
		}
	}

	return nil
}

// ClearSummary drops the summary so it is reported as not generated. It is
// used when the corpus the summary described is gone.
func (s *Store) ClearSummary(ctx context.Context) error {
	s.summary.Store(nil)

	if err := s.write(ctx, model.SummaryArtifact, ""); err != nil {
		logging.From(ctx).Error("failed to clear persisted summary", "error", err)
		return err
	}
	return nil
}

// Load restores the corpus and summary persisted by a previous process.
// Artifacts that were never written are left empty.
func (s *Store) Load(ctx context.Context) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	var generatedAt time.Time
	record, err := s.repo.LatestRebuild(ctx)
	if err != nil {
		logging.From(ctx).Warn("failed to read rebuild catalog", "error", err)
	} else if record != nil {
		s.version = max(s.version, record.Version)
		s.latest = record.ID
		generatedAt = record.CreatedAt
	}

	text, found, err := s.read(ctx, model.CorpusArtifact)
	if err != nil {
		return err
	}
	if found {
		if s.version == 0 {
			s.version = 1
		}
		s.corpus.Store(model.CorpusFromText(text, s.version, generatedAt))
	}

	text, found, err = s.read(ctx, model.SummaryArtifact)
	if err != nil {
		return err
	}
	if found && text != "" {
		s.summary.Store(&model.Summary{Text: text, GeneratedAt: generatedAt})
	}

	return nil
}

func (s *Store) write(ctx context.Context, key, text string) error {
	w, err := s.storage.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open artifact writer", goerr.V("key", key))
	}

	if _, err := io.Copy(w, strings.NewReader(text)); err != nil {
		if a, ok := w.(interface{ Abort() }); ok {
			a.Abort()
		} else {
			_ = w.Close()
		}
		return goerr.Wrap(err, "failed to write artifact", goerr.V("key", key))
	}

	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to commit artifact", goerr.V("key", key))
	}
	return nil
}

func (s *Store) read(ctx context.Context, key string) (string, bool, error) {
	r, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, adapter.ErrObjectNotFound) {
			return "", false, nil
		}
		return "", false, goerr.Wrap(err, "failed to open artifact", goerr.V("key", key))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to read artifact", goerr.V("key", key))
	}
	return string(data), true, nil
}
