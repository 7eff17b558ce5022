package app

import (
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/beacon/internal/domain"
)

// signalRecord is the per-call scratch area for negotiation payloads.
// The SDP and candidate contents are never parsed here.
type signalRecord struct {
	offer      *webrtc.SessionDescription
	answer     *webrtc.SessionDescription
	candidates []webrtc.ICECandidateInit
}

// SignalStore is the polling-fallback side of call signaling: each peer
// writes its blobs, the other polls them out, and the record is purged when
// the call ends.
type SignalStore struct {
	mu      sync.RWMutex
	records map[domain.CallID]*signalRecord
}

func NewSignalStore() *SignalStore {
	return &SignalStore{records: make(map[domain.CallID]*signalRecord)}
}

// record lazily creates an entry; must be called with s.mu held for writing.
func (s *SignalStore) record(id domain.CallID) *signalRecord {
	rec, ok := s.records[id]
	if !ok {
		rec = &signalRecord{}
		s.records[id] = rec
	}
	return rec
}

// PutOffer stores the offer, overwriting any previous one (last write wins).
func (s *SignalStore) PutOffer(id domain.CallID, desc webrtc.SessionDescription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(id).offer = &desc
}

func (s *SignalStore) PutAnswer(id domain.CallID, desc webrtc.SessionDescription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(id).answer = &desc
}

// PushCandidate appends to the ordered candidate sequence for the call.
func (s *SignalStore) PushCandidate(id domain.CallID, cand webrtc.ICECandidateInit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(id)
	rec.candidates = append(rec.candidates, cand)
}

// Offer returns the stored offer, or nil if the peer has not written one
// yet. ErrSignalNotFound means no peer has written anything for this call.
func (s *SignalStore) Offer(id domain.CallID) (*webrtc.SessionDescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrSignalNotFound
	}
	return rec.offer, nil
}

func (s *SignalStore) Answer(id domain.CallID) (*webrtc.SessionDescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrSignalNotFound
	}
	return rec.answer, nil
}

func (s *SignalStore) Candidates(id domain.CallID) ([]webrtc.ICECandidateInit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrSignalNotFound
	}
	out := make([]webrtc.ICECandidateInit, len(rec.candidates))
	copy(out, rec.candidates)
	return out, nil
}

// Purge drops the whole record. Idempotent; purging an unknown call is a no-op.
func (s *SignalStore) Purge(id domain.CallID) {
	s.mu.Lock()
	_, existed := s.records[id]
	delete(s.records, id)
	s.mu.Unlock()
	if existed {
		log.Debug().Str("module", "app.signaling").Str("call", string(id)).Msg("purged signaling record")
	}
}
