package call

import (
	"context"
	"os"

	"github.com/Vamsi1807/AI-Call-Center/pkg/adapter"
	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// SpeechSource turns recorded audio into transcript events
type SpeechSource struct {
	speech adapter.Speech
}

// NewSpeechSource creates a SpeechSource using the given recognizer
func NewSpeechSource(speech adapter.Speech) *SpeechSource {
	return &SpeechSource{speech: speech}
}

// Transcribe recognizes the audio file and sends its final segments to
// events, followed by an end-of-turn event. It does not close events.
func (s *SpeechSource) Transcribe(ctx context.Context, path string, events chan<- model.TranscriptEvent) error {
	audio, err := os.ReadFile(path)
	if err != nil {
		return goerr.Wrap(err, "failed to read audio file", goerr.V("path", path))
	}

	segments, err := s.speech.Recognize(ctx, audio, path)
	if err != nil {
		return goerr.Wrap(err, "failed to recognize speech", goerr.V("path", path))
	}

	for _, text := range segments {
		if err := send(ctx, events, model.NewSegment(text, true)); err != nil {
			return err
		}
	}
	return send(ctx, events, model.EndOfTurn())
}

func send(ctx context.Context, events chan<- model.TranscriptEvent, ev model.TranscriptEvent) error {
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
