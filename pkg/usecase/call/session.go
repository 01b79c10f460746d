// Package call runs voice and text call sessions grounded on the corpus.
package call

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"sync"
	"text/template"
	"unicode"

	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/Vamsi1807/AI-Call-Center/pkg/service/gateway"
	"github.com/Vamsi1807/AI-Call-Center/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/persona.md
var personaPromptRaw string

var personaPromptTmpl = template.Must(template.New("persona").Parse(personaPromptRaw))

// ContextSource provides the corpus used for grounding
type ContextSource interface {
	Corpus() *model.Corpus
}

// Speaker delivers one chunk of a reply to the caller, as audio or text
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Session is one call. Its fields are guarded by a short mutex that is
// never held while waiting on generation or delivery.
type Session struct {
	id          model.SessionID
	corpus      ContextSource
	generator   gateway.Generator
	speaker     Speaker
	bridge      *Bridge
	autoRespond bool

	mu           sync.Mutex
	state        model.CallState
	pending      string
	lastResponse *string
	inFlight     bool
	// epoch changes on every EndCall; results of older epochs are dropped
	epoch uint64
}

// SessionOption is a functional option for Session
type SessionOption func(*Session)

// WithSpeaker delivers every reply through sp, one sentence at a time
func WithSpeaker(sp Speaker) SessionOption {
	return func(s *Session) {
		s.speaker = sp
	}
}

// WithAutoRespond makes Listen request a response after each utterance
func WithAutoRespond(enabled bool) SessionOption {
	return func(s *Session) {
		s.autoRespond = enabled
	}
}

// NewSession creates an idle Session
func NewSession(corpus ContextSource, generator gateway.Generator, opts ...SessionOption) *Session {
	s := &Session{
		id:        model.NewSessionID(),
		corpus:    corpus,
		generator: generator,
		bridge:    NewBridge(),
		state:     model.CallIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier
func (s *Session) ID() model.SessionID {
	return s.id
}

// Bridge returns the transcript bridge feeding this session
func (s *Session) Bridge() *Bridge {
	return s.bridge
}

// StartCall moves an idle session to active
func (s *Session) StartCall(ctx context.Context) error {
	ctx = logging.Component(ctx, "call")
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == model.CallActive {
		return goerr.Wrap(model.ErrAlreadyActive, "cannot start call", goerr.V("session_id", s.id))
	}

	s.state = model.CallActive
	s.pending = ""
	s.lastResponse = nil
	s.bridge.Reset()

	logging.From(ctx).Info("call started", "session_id", s.id)
	return nil
}

// SubmitUtterance sets the utterance to answer, replacing any earlier one
func (s *Session) SubmitUtterance(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != model.CallActive {
		return goerr.Wrap(model.ErrNotActive, "cannot submit utterance", goerr.V("session_id", s.id))
	}
	s.pending = text
	return nil
}

// RequestResponse answers the pending utterance using the corpus. Only one
// request runs at a time; a concurrent call fails with ErrResponseInProgress.
// If the call ends while generation is running, the result is dropped and
// ErrNotActive is returned.
func (s *Session) RequestResponse(ctx context.Context) (string, error) {
	ctx = logging.Component(ctx, "call")
	s.mu.Lock()
	if s.state != model.CallActive {
		s.mu.Unlock()
		return "", goerr.Wrap(model.ErrNotActive, "cannot request response", goerr.V("session_id", s.id))
	}
	if s.inFlight {
		s.mu.Unlock()
		return "", goerr.Wrap(model.ErrResponseInProgress, "cannot request response", goerr.V("session_id", s.id))
	}
	utterance := strings.TrimSpace(s.pending)
	if utterance == "" {
		s.mu.Unlock()
		return "", goerr.Wrap(model.ErrEmptyUtterance, "cannot request response", goerr.V("session_id", s.id))
	}
	corpus := s.corpus.Corpus()
	if corpus.Empty() {
		s.mu.Unlock()
		return "", goerr.Wrap(model.ErrNoContext, "cannot request response", goerr.V("session_id", s.id))
	}
	s.inFlight = true
	epoch := s.epoch
	s.mu.Unlock()

	defer s.finish(epoch)

	var buf bytes.Buffer
	if err := personaPromptTmpl.Execute(&buf, map[string]any{
		"Context":  corpus.Text(),
		"Question": utterance,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute persona prompt template")
	}

	logger := logging.From(ctx).With("session_id", s.id)
	reply, genErr := s.generator.Generate(ctx, buf.String())

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		logger.Info("call ended during generation, response discarded")
		return "", goerr.Wrap(model.ErrNotActive, "response discarded", goerr.V("session_id", s.id))
	}
	if genErr != nil {
		s.mu.Unlock()
		logger.Warn("response generation failed", "error", genErr)
		return "", goerr.Wrap(genErr, "failed to generate response", goerr.V("session_id", s.id))
	}
	s.lastResponse = &reply
	s.mu.Unlock()

	s.deliver(ctx, epoch, reply)
	return reply, nil
}

func (s *Session) finish(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch {
		s.inFlight = false
	}
}

// deliver speaks the reply chunk by chunk and stops as soon as the call ends
func (s *Session) deliver(ctx context.Context, epoch uint64, reply string) {
	if s.speaker == nil {
		return
	}

	for _, chunk := range chunkReply(reply) {
		if !s.current(epoch) {
			return
		}
		if err := s.speaker.Speak(ctx, chunk); err != nil {
			logging.From(ctx).Warn("failed to deliver response", "session_id", s.id, "error", err)
			return
		}
	}
}

func (s *Session) current(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch == epoch
}

// EndCall clears the session and returns it to idle. It is valid in any
// state; a response still being generated is dropped on arrival.
func (s *Session) EndCall(ctx context.Context) {
	ctx = logging.Component(ctx, "call")
	s.mu.Lock()
	defer s.mu.Unlock()

	wasActive := s.state == model.CallActive
	s.epoch++
	s.state = model.CallIdle
	s.pending = ""
	s.lastResponse = nil
	s.inFlight = false
	s.bridge.Reset()

	if wasActive {
		logging.From(ctx).Info("call ended", "session_id", s.id)
	}
}

// Snapshot copies the current session fields
func (s *Session) Snapshot() model.CallSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := model.CallSnapshot{
		ID:               s.id,
		State:            s.state,
		PendingUtterance: s.pending,
		Responding:       s.inFlight,
		LiveTranscript:   s.bridge.Peek(),
	}
	if s.lastResponse != nil {
		resp := *s.lastResponse
		snap.LastResponse = &resp
	}
	return snap
}

// Listen feeds transcript events through the bridge into the session until
// events closes or ctx is done. Each committed utterance becomes the pending
// utterance. With auto respond enabled, responses are requested one after
// another by a single worker so transcript intake never waits on generation.
func (s *Session) Listen(ctx context.Context, events <-chan model.TranscriptEvent) error {
	ctx = logging.Component(ctx, "call")
	logger := logging.From(ctx).With("session_id", s.id)

	triggers := make(chan struct{}, 1)
	var wg sync.WaitGroup
	if s.autoRespond {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range triggers {
				_, err := s.RequestResponse(ctx)
				switch {
				case err == nil:
				case model.IsSessionStateError(err):
					logger.Info("auto response skipped", "reason", err)
				default:
					logger.Warn("auto response failed", "error", err)
				}
			}
		}()
	}

	err := s.bridge.Run(ctx, events, func(text string) {
		if err := s.SubmitUtterance(text); err != nil {
			logger.Warn("utterance received outside an active call", "utterance", text, "error", err)
			return
		}
		logger.Debug("utterance committed", "utterance", text)

		if s.autoRespond {
			select {
			case triggers <- struct{}{}:
			default:
			}
		}
	})

	close(triggers)
	wg.Wait()
	return err
}

// chunkReply splits a reply into sentences so delivery can stop between
// them. A period inside a number such as 9.30 does not end a sentence.
func chunkReply(reply string) []string {
	runes := []rune(strings.TrimSpace(reply))
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	var b strings.Builder
	flush := func() {
		if chunk := strings.TrimSpace(b.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		b.Reset()
	}

	for i, r := range runes {
		switch r {
		case '.', '!', '?':
			b.WriteRune(r)
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		case '\n', '\r':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return chunks
}
