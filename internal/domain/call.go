package domain

import (
	"errors"
	"time"
)

type CallID string

type CallType string

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

func (t CallType) Valid() bool {
	return t == CallAudio || t == CallVideo
}

type CallStatus string

const (
	CallRinging   CallStatus = "ringing"
	CallConnected CallStatus = "connected"
	CallEnded     CallStatus = "ended"
)

var (
	ErrCallNotFound    = errors.New("call not found")
	ErrForbidden       = errors.New("actor is not a party to the call")
	ErrReceiverOffline = errors.New("receiver is offline")
	ErrCallerBusy      = errors.New("caller already has a ringing call")
	ErrReceiverBusy    = errors.New("receiver already has a ringing call")
	ErrCallEnded       = errors.New("call already ended")
	ErrNotRinging      = errors.New("call is not ringing")
	ErrInvalidCallType = errors.New("invalid call type")
	ErrSelfCall        = errors.New("caller and receiver are the same user")
	ErrSignalNotFound  = errors.New("signaling record not found")
)

// CallSession tracks one call attempt between two users.
// Status moves ringing -> connected -> ended; ended is terminal.
type CallSession struct {
	ID         CallID     `json:"callId"`
	CallerID   UserID     `json:"callerId"`
	ReceiverID UserID     `json:"receiverId"`
	Type       CallType   `json:"callType"`
	Status     CallStatus `json:"status"`
	StartedAt  time.Time  `json:"startTime"`
}

func (s *CallSession) IsParty(uid UserID) bool {
	return uid == s.CallerID || uid == s.ReceiverID
}

// Peer returns the other party of the call.
func (s *CallSession) Peer(uid UserID) UserID {
	if uid == s.CallerID {
		return s.ReceiverID
	}
	return s.CallerID
}
