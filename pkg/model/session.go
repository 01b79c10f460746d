package model

import (
	"github.com/google/uuid"
)

type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

type CallState int

const (
	CallIdle CallState = iota
	CallActive
)

func (s CallState) String() string {
	switch s {
	case CallActive:
		return "active"
	default:
		return "idle"
	}
}

// CallSnapshot is a point-in-time copy of a call session's fields
type CallSnapshot struct {
	ID               SessionID
	State            CallState
	PendingUtterance string
	LastResponse     *string
	Responding       bool
	LiveTranscript   string
}
