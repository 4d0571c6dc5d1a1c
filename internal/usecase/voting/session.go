package usecase_voting

import (
	"sort"
	"sync"
	"time"

	"github.com/coplay/gamenight/core/internal/model"
)

// Session is a single time-bounded poll over a fixed candidate list and a
// fixed voter roster. It owns its own mutation lock; operations on
// different sessions never block each other.
//
// Expiry is lazy: every operation re-derives "expired" from the injected
// clock and performs the close transition the first time it observes the
// deadline passed. There is no per-session timer.
type Session struct {
	mu sync.Mutex

	id         string
	candidates []model.GameRecord
	positions  map[string]int // app id -> index in candidates, tie-break order
	voters     map[string]struct{}
	votes      map[string]string // voter -> app id, last write wins
	createdAt  time.Time
	duration   time.Duration

	status   model.SessionStatus
	expired  bool // closed by deadline rather than an explicit Close
	closedAt time.Time
	winner   *model.GameRecord

	now func() time.Time
}

func newSession(id string, candidates []model.GameRecord, voters []string, duration time.Duration, now func() time.Time) *Session {
	s := &Session{
		id:         id,
		candidates: candidates,
		positions:  make(map[string]int, len(candidates)),
		voters:     make(map[string]struct{}, len(voters)),
		votes:      make(map[string]string),
		createdAt:  now(),
		duration:   duration,
		status:     model.SessionOpen,
		now:        now,
	}
	for i, c := range candidates {
		s.positions[c.AppID] = i
	}
	for _, v := range voters {
		s.voters[v] = struct{}{}
	}
	return s
}

func (s *Session) ID() string { return s.id }

// CastVote records or rejects a vote. A voter may re-vote any number of
// times while the session is open; only the last choice counts.
func (s *Session) CastVote(voter, appID string) model.VoteOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finalizeIfExpired()

	if s.status == model.SessionClosed {
		if s.expired {
			return model.Rejected(model.RejectSessionExpired)
		}
		return model.Rejected(model.RejectSessionClosed)
	}
	if _, ok := s.voters[voter]; !ok {
		return model.Rejected(model.RejectNotAVoter)
	}
	if _, ok := s.positions[appID]; !ok {
		return model.Rejected(model.RejectUnknownCandidate)
	}

	s.votes[voter] = appID
	return model.Recorded()
}

// Results tallies votes per candidate. Candidates nobody voted for are
// omitted. On an expired session this observes the close transition first,
// so the view never includes votes cast after the deadline (none can be).
func (s *Session) Results() map[string]model.Tally {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finalizeIfExpired()
	return s.tallyLocked()
}

// Close transitions the session to closed and returns the winner: the
// candidate with the most votes, ties broken by shortlist position
// (earliest listed wins; candidate order is meaningful). With zero votes
// the winner is nil. Closing an already-closed session returns the
// recorded winner without recomputation.
func (s *Session) Close() *model.GameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finalizeIfExpired()
	if s.status != model.SessionClosed {
		s.closeLocked(false)
	}
	return s.winner
}

func (s *Session) Status() model.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finalizeIfExpired()
	return s.status
}

// Progress reports how many of the eligible voters have voted. Used by the
// ws hub; deliberately not a tally.
func (s *Session) Progress() (votesCast, eligible int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finalizeIfExpired()
	return len(s.votes), len(s.voters)
}

// SessionState is the serialisable view of a session for API responses.
type SessionState struct {
	SessionID  string                 `json:"session_id"`
	Status     model.SessionStatus    `json:"status"`
	Candidates []model.GameRecord     `json:"candidates"`
	Tallies    map[string]model.Tally `json:"vote_counts"`
	TotalVotes int                    `json:"total_votes"`
	Voters     []string               `json:"eligible_voters"`
	Winner     *model.GameRecord      `json:"winner,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	Duration   time.Duration          `json:"duration"`
}

func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finalizeIfExpired()

	state := SessionState{
		SessionID:  s.id,
		Status:     s.status,
		Candidates: append([]model.GameRecord(nil), s.candidates...),
		Tallies:    s.tallyLocked(),
		TotalVotes: len(s.votes),
		Voters:     make([]string, 0, len(s.voters)),
		Winner:     s.winner,
		CreatedAt:  s.createdAt,
		Duration:   s.duration,
	}
	for v := range s.voters {
		state.Voters = append(state.Voters, v)
	}
	sort.Strings(state.Voters)
	return state
}

// finalizeIfExpired performs the expiry transition once. Callers hold s.mu.
func (s *Session) finalizeIfExpired() {
	if s.status == model.SessionClosed {
		return
	}
	if s.now().Sub(s.createdAt) >= s.duration {
		s.closeLocked(true)
	}
}

// closeLocked computes the winner and freezes the session. Callers hold
// s.mu and have checked the session is still open.
func (s *Session) closeLocked(byExpiry bool) {
	s.status = model.SessionClosed
	s.expired = byExpiry
	s.closedAt = s.now()

	if len(s.votes) == 0 {
		return // no votes, no winner
	}

	counts := make(map[string]int, len(s.votes))
	for _, appID := range s.votes {
		counts[appID]++
	}

	best := -1
	for i, c := range s.candidates {
		n := counts[c.AppID]
		if n == 0 {
			continue
		}
		if best == -1 || n > counts[s.candidates[best].AppID] {
			best = i
		}
	}
	if best >= 0 {
		winner := s.candidates[best]
		s.winner = &winner
	}
}

func (s *Session) tallyLocked() map[string]model.Tally {
	tallies := make(map[string]model.Tally)
	for voter, appID := range s.votes {
		t := tallies[appID]
		t.Count++
		t.Voters = append(t.Voters, voter)
		tallies[appID] = t
	}
	for appID, t := range tallies {
		sort.Strings(t.Voters)
		tallies[appID] = t
	}
	return tallies
}

// retired reports whether a closed session has outlived the retention
// window. Callers may still read a just-closed result, so the registry
// sweep only deletes after the window.
func (s *Session) retired(retention time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finalizeIfExpired()
	return s.status == model.SessionClosed && s.now().Sub(s.closedAt) >= retention
}
