package model

type TranscriptEventKind int

const (
	// TranscriptSegment carries recognized speech
	TranscriptSegment TranscriptEventKind = iota
	// TranscriptEndOfTurn marks that the user finished speaking
	TranscriptEndOfTurn
)

// TranscriptEvent is one event emitted by an external speech source. It is
// consumed once by the transcript bridge and never persisted.
type TranscriptEvent struct {
	Kind    TranscriptEventKind
	IsFinal bool
	Text    string
}

// NewSegment creates a speech segment event
func NewSegment(text string, isFinal bool) TranscriptEvent {
	return TranscriptEvent{Kind: TranscriptSegment, IsFinal: isFinal, Text: text}
}

// EndOfTurn creates an explicit end-of-turn event
func EndOfTurn() TranscriptEvent {
	return TranscriptEvent{Kind: TranscriptEndOfTurn}
}

// IsEndOfTurn reports whether the event closes the current turn. Browser
// speech sources signal the end of a turn with an empty segment, so an empty
// segment is accepted as well as the explicit kind.
func (e TranscriptEvent) IsEndOfTurn() bool {
	return e.Kind == TranscriptEndOfTurn || e.Text == ""
}
