package call

import (
	"context"
	"strings"
	"sync"

	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
)

// Bridge collapses a stream of transcript events into one utterance per
// turn. The speech source may restart any number of times within a turn;
// only the end-of-turn signal closes it.
type Bridge struct {
	mu          sync.Mutex
	accumulated string
	interim     string
	finalized   bool
}

// NewBridge creates an empty Bridge
func NewBridge() *Bridge {
	return &Bridge{}
}

// OnEvent applies one transcript event. It reports whether the event
// closed the current turn.
func (b *Bridge) OnEvent(ev model.TranscriptEvent) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ev.IsEndOfTurn() {
		b.finalized = true
		b.interim = ""
		return true
	}

	if !ev.IsFinal {
		b.interim = strings.TrimSpace(ev.Text)
		return false
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return false
	}
	if b.accumulated == "" {
		b.accumulated = text
	} else {
		b.accumulated += " " + text
	}
	b.interim = ""
	b.finalized = false
	return false
}

// Take returns the accumulated utterance and resets the Bridge for the next
// turn. Before the end-of-turn signal the result is best-effort partial text.
func (b *Bridge) Take() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	text := b.accumulated
	b.accumulated = ""
	b.interim = ""
	b.finalized = false
	return text
}

// Peek returns the live text of the current turn, including any interim
// segment, without resetting
func (b *Bridge) Peek() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.interim == "":
		return b.accumulated
	case b.accumulated == "":
		return b.interim
	default:
		return b.accumulated + " " + b.interim
	}
}

// Finalized reports whether the current turn was closed by the source
func (b *Bridge) Finalized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.finalized
}

// Reset drops any partial turn
func (b *Bridge) Reset() {
	b.Take()
}

// Run consumes events until the channel closes or ctx is done. onUtterance
// is called with each committed utterance. When the channel closes mid-turn
// the accumulated text is flushed instead of dropped.
func (b *Bridge) Run(ctx context.Context, events <-chan model.TranscriptEvent, onUtterance func(string)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				if text := b.Take(); text != "" {
					onUtterance(text)
				}
				return nil
			}

			if b.OnEvent(ev) {
				if text := b.Take(); text != "" {
					onUtterance(text)
				}
			}
		}
	}
}
