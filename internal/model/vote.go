package model

type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// RejectReason tags why a cast vote was not recorded. A rejected vote is a
// normal result, not an error.
type RejectReason string

const (
	RejectNotAVoter        RejectReason = "not_a_voter"
	RejectUnknownCandidate RejectReason = "unknown_candidate"
	RejectSessionExpired   RejectReason = "session_expired"
	RejectSessionClosed    RejectReason = "session_closed"
)

type VoteOutcome struct {
	Recorded bool         `json:"recorded"`
	Reason   RejectReason `json:"reason,omitempty"`
}

func Recorded() VoteOutcome {
	return VoteOutcome{Recorded: true}
}

func Rejected(reason RejectReason) VoteOutcome {
	return VoteOutcome{Reason: reason}
}

// Tally is the per-candidate view returned by a session's results: how many
// votes a candidate got and from whom.
type Tally struct {
	Count  int      `json:"count"`
	Voters []string `json:"voters"`
}
