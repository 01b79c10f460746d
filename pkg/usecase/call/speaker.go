package call

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// WriterSpeaker prints reply chunks to a writer, one per line
type WriterSpeaker struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

// NewWriterSpeaker creates a Speaker printing to w with a line prefix
func NewWriterSpeaker(w io.Writer, prefix string) *WriterSpeaker {
	return &WriterSpeaker{w: w, prefix: prefix}
}

func (s *WriterSpeaker) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "%s%s\n", s.prefix, text); err != nil {
		return goerr.Wrap(err, "failed to write response")
	}
	return nil
}
