package domain

import (
	"fmt"
	"time"
)

// Status is the single lifecycle of a matching request:
//
//	pending_user_approval ──accept──► pending_landlord_approval ──approve──► approved
//	        │                                   │
//	        └──────────reject───────────────────┴──────reject──────────────► rejected
//
// approved and rejected are terminal.
type Status string

const (
	StatusAwaitingPoster   Status = "pending_user_approval"
	StatusAwaitingLandlord Status = "pending_landlord_approval"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
)

var validTransitions = map[Status][]Status{
	StatusAwaitingPoster:   {StatusAwaitingLandlord, StatusRejected},
	StatusAwaitingLandlord: {StatusApproved, StatusRejected},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusAwaitingPoster, StatusAwaitingLandlord, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown matching request status %q", s)
}

func IsTransitionAllowed(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// PosterLabel renders the status in the poster-facing vocabulary
// (pending / accepted / rejected).
func (s Status) PosterLabel() string {
	switch s {
	case StatusAwaitingPoster:
		return "pending"
	case StatusAwaitingLandlord, StatusApproved:
		return "accepted"
	default:
		return "rejected"
	}
}

// ActiveStatuses are the non-terminal statuses; a seeker may hold at most one
// request per room in any of them.
var ActiveStatuses = []Status{StatusAwaitingPoster, StatusAwaitingLandlord}

// TerminalStatuses are the statuses shown in history views.
var TerminalStatuses = []Status{StatusApproved, StatusRejected}

type PosterDecision string

const (
	PosterAccept PosterDecision = "accept"
	PosterReject PosterDecision = "reject"
)

type LandlordDecision string

const (
	LandlordApprove LandlordDecision = "approve"
	LandlordReject  LandlordDecision = "reject"
)

// Decider records which party moved a request to rejected.
type Decider string

const (
	DeciderPoster   Decider = "poster"
	DeciderLandlord Decider = "landlord"
)

// MatchingRequest is one seeker's interest in one shared room.
type MatchingRequest struct {
	ID                      string     `json:"requestId" db:"id"`
	RoomID                  int        `json:"roomId" db:"room_id"`
	PostID                  int        `json:"postId" db:"post_id"`
	PosterID                int        `json:"posterId" db:"poster_id"`
	SeekerID                int        `json:"seekerId" db:"seeker_id"`
	MatchScore              int        `json:"matchScore" db:"match_score"`
	Status                  Status     `json:"status" db:"status"`
	Message                 string     `json:"message" db:"message"`
	RequestedMoveInDate     time.Time  `json:"requestedMoveInDate" db:"requested_move_in_date"`
	RequestedDurationMonths int        `json:"requestedDuration" db:"requested_duration_months"`
	Explanation             *string    `json:"explanation,omitempty" db:"explanation"`
	RejectedBy              *Decider   `json:"rejectedBy,omitempty" db:"rejected_by"`
	ContractID              *string    `json:"contractId" db:"contract_id"`
	DecidedAt               *time.Time `json:"decidedAt,omitempty" db:"decided_at"`
	CreatedAt               time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt               time.Time  `json:"updatedAt" db:"updated_at"`
}

// CheckInvariants verifies that a contract is attached exactly when the request
// is approved.
func (m *MatchingRequest) CheckInvariants() error {
	if (m.ContractID != nil) != (m.Status == StatusApproved) {
		return fmt.Errorf("request %s: contract presence does not match status %s", m.ID, m.Status)
	}
	if m.MatchScore < 0 || m.MatchScore > 100 {
		return fmt.Errorf("request %s: match score %d out of range", m.ID, m.MatchScore)
	}
	return nil
}

func (m *MatchingRequest) InvolvesUser(userID int) bool {
	return m.SeekerID == userID || m.PosterID == userID
}

// ApplyPosterDecision returns the request as it would look after the poster's
// decision. Only a request awaiting the poster can take one. The receiver is
// never modified.
func (m MatchingRequest) ApplyPosterDecision(posterID int, d PosterDecision, at time.Time) (*MatchingRequest, error) {
	if posterID != m.PosterID {
		return nil, ErrForbidden
	}
	var to Status
	switch d {
	case PosterAccept:
		to = StatusAwaitingLandlord
	case PosterReject:
		to = StatusRejected
	default:
		return nil, NewValidationError("decision", fmt.Sprintf("unknown poster decision %q", d))
	}
	if m.Status != StatusAwaitingPoster || !IsTransitionAllowed(m.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, m.Status, to)
	}

	next := m
	next.Status = to
	next.UpdatedAt = at
	if to == StatusRejected {
		by := DeciderPoster
		next.RejectedBy = &by
		next.DecidedAt = &at
	}
	return &next, nil
}

// ApplyLandlordDecision returns the request after the landlord's decision.
// Approval requires the id of an already created contract. Authorization
// against the room's landlord is the caller's job.
func (m MatchingRequest) ApplyLandlordDecision(d LandlordDecision, contractID string, at time.Time) (*MatchingRequest, error) {
	var to Status
	switch d {
	case LandlordApprove:
		to = StatusApproved
	case LandlordReject:
		to = StatusRejected
	default:
		return nil, NewValidationError("decision", fmt.Sprintf("unknown landlord decision %q", d))
	}
	if m.Status != StatusAwaitingLandlord || !IsTransitionAllowed(m.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, m.Status, to)
	}

	next := m
	next.Status = to
	next.UpdatedAt = at
	next.DecidedAt = &at
	if to == StatusApproved {
		if contractID == "" {
			return nil, fmt.Errorf("request %s: approval without contract", m.ID)
		}
		next.ContractID = &contractID
	} else {
		by := DeciderLandlord
		next.RejectedBy = &by
	}
	return &next, nil
}
