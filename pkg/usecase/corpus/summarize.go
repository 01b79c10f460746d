package corpus

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"

	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/Vamsi1807/AI-Call-Center/pkg/service/gateway"
	"github.com/Vamsi1807/AI-Call-Center/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/summarize.md
var summarizePromptRaw string

var summarizePromptTmpl = template.Must(template.New("summarize").Parse(summarizePromptRaw))

// ErrEmptyCorpus is returned when there is nothing to summarize
var ErrEmptyCorpus = goerr.New("corpus is empty")

// Summarizer generates the corpus digest and stores it
type Summarizer struct {
	store     *Store
	generator gateway.Generator
	audience  string
}

// SummarizerOption is a functional option for Summarizer
type SummarizerOption func(*Summarizer)

// WithAudience sets who the summary is written for
func WithAudience(audience string) SummarizerOption {
	return func(s *Summarizer) {
		if audience != "" {
			s.audience = audience
		}
	}
}

// NewSummarizer creates a Summarizer
func NewSummarizer(store *Store, generator gateway.Generator, opts ...SummarizerOption) *Summarizer {
	s := &Summarizer{
		store:     store,
		generator: generator,
		audience:  "educational",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize asks the generator for a digest of the whole corpus. The stored
// summary only changes when generation succeeds. If the new summary cannot be
// persisted it is still returned and kept in memory along with the error.
func (s *Summarizer) Summarize(ctx context.Context, corpus *model.Corpus) (*model.Summary, error) {
	ctx = logging.Component(ctx, "summarizer")
	if corpus.Empty() {
		return nil, ErrEmptyCorpus
	}

	var buf bytes.Buffer
	if err := summarizePromptTmpl.Execute(&buf, map[string]any{
		"Audience": s.audience,
		"Context":  corpus.Text(),
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute summarize prompt template")
	}

	text, err := s.generator.Generate(ctx, buf.String())
	if err != nil {
		logging.From(ctx).Warn("summary generation failed, keeping previous summary", "error", err)
		return nil, err
	}

	persistErr := s.store.SetSummary(ctx, text)
	summary := s.store.Summary()

	logging.From(ctx).Info("summary updated", "corpus_version", corpus.Version, "length", len(text))
	return summary, persistErr
}
