package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// CorpusArtifact and SummaryArtifact are the persisted artifact keys
	CorpusArtifact  = "ai_full_context.txt"
	SummaryArtifact = "ai_summary.txt"
)

// Corpus is the flattened text of every known document at aggregation time.
type Corpus struct {
	Lines       []string
	Version     uint64
	GeneratedAt time.Time
}

// Text joins the corpus lines with newlines
func (c *Corpus) Text() string {
	return strings.Join(c.Lines, "\n")
}

// Empty reports whether the corpus has no content to ground on
func (c *Corpus) Empty() bool {
	return c == nil || len(c.Lines) == 0
}

// CorpusFromText rebuilds a corpus from its persisted text form
func CorpusFromText(text string, version uint64, generatedAt time.Time) *Corpus {
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	return &Corpus{
		Lines:       lines,
		Version:     version,
		GeneratedAt: generatedAt,
	}
}

// Summary is the generated digest of a Corpus
type Summary struct {
	Text        string
	GeneratedAt time.Time
}

type RebuildID string

// NewRebuildID generates a new unique RebuildID
func NewRebuildID() RebuildID {
	return RebuildID(uuid.New().String())
}

// RebuildRecord is the catalog entry written for each corpus rebuild. The
// corpus body itself lives in artifact storage.
type RebuildRecord struct {
	ID              RebuildID
	Version         uint64
	Documents       []string
	LineCount       int
	IngestionErrors []string
	SummaryUpdated  bool
	CreatedAt       time.Time
}
