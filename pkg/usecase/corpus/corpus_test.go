package corpus_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Vamsi1807/AI-Call-Center/pkg/adapter"
	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/Vamsi1807/AI-Call-Center/pkg/repository"
	"github.com/Vamsi1807/AI-Call-Center/pkg/service/document"
	"github.com/Vamsi1807/AI-Call-Center/pkg/usecase/corpus"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

// Mock document source
type mockSource struct {
	doc *model.Document
	err error
}

func (m *mockSource) Name() string {
	if m.doc != nil {
		return m.doc.Name
	}
	return "broken.xlsx"
}

func (m *mockSource) Open(ctx context.Context) (*model.Document, error) {
	return m.doc, m.err
}

func qaDoc(name, q, a string) *model.Document {
	return &model.Document{
		Name: name,
		Sheets: []*model.Sheet{{
			Name: "Sheet1",
			Rows: []model.Row{{
				{Column: "Q", Value: model.StringValue(q)},
				{Column: "A", Value: model.StringValue(a)},
			}},
		}},
	}
}

func sources(docs ...*model.Document) []document.Source {
	s := make([]document.Source, len(docs))
	for i, d := range docs {
		s[i] = &mockSource{doc: d}
	}
	return s
}

// Mock storage
type mockStorage struct {
	mu      sync.Mutex
	objects map[string]string
	putErr  error
}

func newMockStorage() *mockStorage {
	return &mockStorage{objects: make(map[string]string)}
}

type mockWriter struct {
	bytes.Buffer
	key     string
	storage *mockStorage
}

func (w *mockWriter) Close() error {
	w.storage.mu.Lock()
	defer w.storage.mu.Unlock()
	w.storage.objects[w.key] = w.String()
	return nil
}

func (m *mockStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	return &mockWriter{key: key, storage: m}, nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, goerr.Wrap(adapter.ErrObjectNotFound, "not found", goerr.V("key", key))
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (m *mockStorage) get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.objects[key]
	return v, ok
}

// Mock generator
type mockGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func TestFlattenDocuments(t *testing.T) {
	doc := &model.Document{
		Name: "school.xlsx",
		Sheets: []*model.Sheet{
			{
				Name: "Staff",
				Rows: []model.Row{
					{
						{Column: "Name", Value: model.StringValue("Ann")},
						{Column: "Years", Value: model.NumberValue(5)},
						{Column: "Remote", Value: model.BoolValue(true)},
						{Column: "Note", Value: model.NullValue()},
					},
					{
						{Column: "Name", Value: model.StringValue("Bob")},
						{Column: "Years", Value: model.NumberValue(2.5)},
					},
				},
			},
			{Name: "Empty"},
		},
	}

	lines := corpus.FlattenDocuments([]*model.Document{doc})
	gt.Equal(t, lines, []string{
		"📁 File: school.xlsx",
		"📄 Sheet: Staff",
		"Name: Ann | Years: 5 | Remote: true | Note: ",
		"Name: Bob | Years: 2.5",
		"",
		"📄 Sheet: Empty",
		"",
		"",
	})
}

func TestFlattenIdempotent(t *testing.T) {
	docs := []*model.Document{qaDoc("a.xlsx", "Hours?", "9-5"), qaDoc("b.xlsx", "Location?", "Remote")}

	first := corpus.FlattenDocuments(docs)
	second := corpus.FlattenDocuments(docs)
	gt.Equal(t, first, second)
	gt.Equal(t, strings.Join(first, "\n"), strings.Join(second, "\n"))
}

func TestFlattenPartialFailure(t *testing.T) {
	srcs := []document.Source{
		&mockSource{doc: qaDoc("one.xlsx", "Hours?", "9-5")},
		&mockSource{err: errors.New("zip: not a valid zip file")},
		&mockSource{doc: qaDoc("three.xlsx", "Location?", "Remote")},
	}

	lines, names, failures := corpus.Flatten(context.Background(), srcs)
	gt.Equal(t, names, []string{"one.xlsx", "three.xlsx"})
	gt.A(t, failures).Length(1)
	gt.Equal(t, failures[0].Document, "broken.xlsx")

	text := strings.Join(lines, "\n")
	gt.S(t, text).Contains("📁 File: one.xlsx")
	gt.S(t, text).Contains("📁 File: three.xlsx")
	gt.S(t, text).NotContains("broken.xlsx")
}

func TestStoreHappyPath(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	repo := repository.NewMemory()
	store := corpus.NewStore(storage, corpus.WithRepository(repo))

	gt.Nil(t, store.Corpus())
	gt.Nil(t, store.Summary())

	result := store.Rebuild(ctx, sources(
		qaDoc("A.xlsx", "Hours?", "9-5"),
		qaDoc("B.xlsx", "Location?", "Remote"),
	))
	gt.NoError(t, result.PersistError)
	gt.A(t, result.IngestionErrors).Length(0)

	c := store.Corpus()
	gt.V(t, c).NotNil()
	gt.Equal(t, c.Lines, []string{
		"📁 File: A.xlsx",
		"📄 Sheet: Sheet1",
		"Q: Hours? | A: 9-5",
		"",
		"",
		"📁 File: B.xlsx",
		"📄 Sheet: Sheet1",
		"Q: Location? | A: Remote",
		"",
		"",
	})

	persisted, ok := storage.get(model.CorpusArtifact)
	gt.True(t, ok)
	gt.Equal(t, persisted, c.Text())

	gen := &mockGenerator{text: "Office hours 9-5, remote work."}
	summary, err := corpus.NewSummarizer(store, gen).Summarize(ctx, c)
	gt.NoError(t, err)
	gt.Equal(t, summary.Text, "Office hours 9-5, remote work.")
	gt.Equal(t, store.Summary().Text, "Office hours 9-5, remote work.")

	gt.A(t, gen.prompts).Length(1)
	gt.S(t, gen.prompts[0]).Contains("Summarize this educational information clearly:")
	gt.S(t, gen.prompts[0]).Contains(c.Text())

	persistedSummary, ok := storage.get(model.SummaryArtifact)
	gt.True(t, ok)
	gt.Equal(t, persistedSummary, "Office hours 9-5, remote work.")

	record, err := repo.LatestRebuild(ctx)
	gt.NoError(t, err)
	gt.Equal(t, record.ID, result.Record.ID)
	gt.Equal(t, record.Documents, []string{"A.xlsx", "B.xlsx"})
	gt.True(t, record.SummaryUpdated)
}

func TestStoreRebuildDoesNotAccumulate(t *testing.T) {
	ctx := context.Background()
	store := corpus.NewStore(newMockStorage())

	docs := sources(qaDoc("A.xlsx", "Hours?", "9-5"))
	first := store.Rebuild(ctx, docs).Corpus
	second := store.Rebuild(ctx, docs).Corpus

	gt.Equal(t, first.Lines, second.Lines)
	gt.Number(t, second.Version).Greater(first.Version)

	third := store.Rebuild(ctx, sources(qaDoc("B.xlsx", "Location?", "Remote"))).Corpus
	gt.S(t, third.Text()).NotContains("A.xlsx")
	gt.True(t, store.Corpus() == third)
}

func TestStorePartialIngestion(t *testing.T) {
	store := corpus.NewStore(newMockStorage())
	result := store.Rebuild(context.Background(), []document.Source{
		&mockSource{doc: qaDoc("one.xlsx", "Hours?", "9-5")},
		&mockSource{err: errors.New("malformed")},
		&mockSource{doc: qaDoc("three.xlsx", "Location?", "Remote")},
	})

	gt.A(t, result.IngestionErrors).Length(1)
	gt.A(t, result.Record.IngestionErrors).Length(1)
	gt.Equal(t, result.Record.Documents, []string{"one.xlsx", "three.xlsx"})
	gt.S(t, store.Corpus().Text()).Contains("Q: Hours? | A: 9-5")
	gt.S(t, store.Corpus().Text()).Contains("Q: Location? | A: Remote")
}

func TestStorePersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	storage.putErr = errors.New("disk full")
	store := corpus.NewStore(storage)

	result := store.Rebuild(ctx, sources(qaDoc("A.xlsx", "Hours?", "9-5")))
	gt.Error(t, result.PersistError)
	gt.V(t, store.Corpus()).NotNil()
	gt.S(t, store.Corpus().Text()).Contains("A.xlsx")

	err := store.SetSummary(ctx, "summary text")
	gt.Error(t, err)
	gt.Equal(t, store.Summary().Text, "summary text")
}

func TestSummarizeFailureKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	store := corpus.NewStore(newMockStorage())
	c := store.Rebuild(ctx, sources(qaDoc("A.xlsx", "Hours?", "9-5"))).Corpus
	gt.NoError(t, store.SetSummary(ctx, "previous"))

	gen := &mockGenerator{err: &model.GenerationError{Kind: model.GenerationUnavailable}}
	_, err := corpus.NewSummarizer(store, gen).Summarize(ctx, c)
	gt.Error(t, err)

	genErr, ok := model.AsGenerationError(err)
	gt.True(t, ok)
	gt.Equal(t, genErr.Kind, model.GenerationUnavailable)
	gt.Equal(t, store.Summary().Text, "previous")
}

func TestSummarizeAudience(t *testing.T) {
	ctx := context.Background()
	store := corpus.NewStore(newMockStorage())
	c := store.Rebuild(ctx, sources(qaDoc("A.xlsx", "Hours?", "9-5"))).Corpus

	gen := &mockGenerator{text: "ok"}
	_, err := corpus.NewSummarizer(store, gen, corpus.WithAudience("HR policy")).Summarize(ctx, c)
	gt.NoError(t, err)
	gt.S(t, gen.prompts[0]).Contains("Summarize this HR policy information clearly:")
}

func TestSummarizeEmptyCorpus(t *testing.T) {
	ctx := context.Background()
	store := corpus.NewStore(newMockStorage())
	c := store.Rebuild(ctx, nil).Corpus

	gen := &mockGenerator{text: "ok"}
	_, err := corpus.NewSummarizer(store, gen).Summarize(ctx, c)
	gt.True(t, errors.Is(err, corpus.ErrEmptyCorpus))
	gt.A(t, gen.prompts).Length(0)
}

func TestStoreLoad(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	repo := repository.NewMemory()

	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	first := corpus.NewStore(storage, corpus.WithRepository(repo), corpus.WithClock(func() time.Time { return clock }))
	built := first.Rebuild(ctx, sources(qaDoc("A.xlsx", "Hours?", "9-5"))).Corpus
	gt.NoError(t, first.SetSummary(ctx, "Office hours 9-5."))

	restarted := corpus.NewStore(storage, corpus.WithRepository(repo))
	gt.NoError(t, restarted.Load(ctx))

	gt.Equal(t, restarted.Corpus().Text(), built.Text())
	gt.Equal(t, restarted.Corpus().Version, built.Version)
	gt.Equal(t, restarted.Summary().Text, "Office hours 9-5.")

	next := restarted.Rebuild(ctx, sources(qaDoc("A.xlsx", "Hours?", "9-5")))
	gt.Number(t, next.Corpus.Version).Greater(built.Version)
}

func TestStoreClearSummary(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	store := corpus.NewStore(storage)

	store.Rebuild(ctx, sources(qaDoc("A.xlsx", "Hours?", "9-5")))
	gt.NoError(t, store.SetSummary(ctx, "Office hours 9-5."))

	// every document removed, the old digest must not be served
	gt.True(t, store.Rebuild(ctx, nil).Corpus.Empty())
	gt.NoError(t, store.ClearSummary(ctx))
	gt.Nil(t, store.Summary())

	persisted, ok := storage.get(model.SummaryArtifact)
	gt.True(t, ok)
	gt.Equal(t, persisted, "")

	restarted := corpus.NewStore(storage)
	gt.NoError(t, restarted.Load(ctx))
	gt.Nil(t, restarted.Summary())
}

func TestStoreLoadNothing(t *testing.T) {
	store := corpus.NewStore(newMockStorage())
	gt.NoError(t, store.Load(context.Background()))
	gt.Nil(t, store.Corpus())
	gt.Nil(t, store.Summary())
}

func TestStoreConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	store := corpus.NewStore(newMockStorage())
	a := sources(qaDoc("A.xlsx", "Hours?", "9-5"))
	b := sources(qaDoc("B.xlsx", "Location?", "Remote"), qaDoc("C.xlsx", "Phone?", "100"))

	wantA := strings.Join(corpus.FlattenDocuments([]*model.Document{qaDoc("A.xlsx", "Hours?", "9-5")}), "\n")
	wantB := strings.Join(corpus.FlattenDocuments([]*model.Document{
		qaDoc("B.xlsx", "Location?", "Remote"),
		qaDoc("C.xlsx", "Phone?", "100"),
	}), "\n")

	store.Rebuild(ctx, a)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if i%2 == 0 {
				store.Rebuild(ctx, b)
			} else {
				store.Rebuild(ctx, a)
			}
		}
	}()

	for i := 0; i < 200; i++ {
		text := store.Corpus().Text()
		if text != wantA && text != wantB {
			t.Fatalf("observed partial corpus: %q", text)
		}
	}
	wg.Wait()
}
