package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []domain.Status{
	domain.StatusAwaitingPoster,
	domain.StatusAwaitingLandlord,
	domain.StatusApproved,
	domain.StatusRejected,
}

func pendingRequest() domain.MatchingRequest {
	return domain.MatchingRequest{
		ID:         "req-1",
		RoomID:     10,
		PostID:     20,
		PosterID:   1,
		SeekerID:   2,
		MatchScore: 72,
		Status:     domain.StatusAwaitingPoster,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	for _, s := range allStatuses {
		got, err := domain.ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestParseStatus_RejectsLegacyAndUnknown(t *testing.T) {
	for _, s := range []string{"pending", "accepted", "", "APPROVED", " approved"} {
		_, err := domain.ParseStatus(s)
		assert.Error(t, err, "ParseStatus(%q)", s)
	}
}

// ── Transition table ───────────────────────────────────────────────────────

func TestIsTransitionAllowed_Forward(t *testing.T) {
	assert.True(t, domain.IsTransitionAllowed(domain.StatusAwaitingPoster, domain.StatusAwaitingLandlord))
	assert.True(t, domain.IsTransitionAllowed(domain.StatusAwaitingPoster, domain.StatusRejected))
	assert.True(t, domain.IsTransitionAllowed(domain.StatusAwaitingLandlord, domain.StatusApproved))
	assert.True(t, domain.IsTransitionAllowed(domain.StatusAwaitingLandlord, domain.StatusRejected))
}

func TestIsTransitionAllowed_PosterCannotSkipLandlord(t *testing.T) {
	assert.False(t, domain.IsTransitionAllowed(domain.StatusAwaitingPoster, domain.StatusApproved))
}

func TestIsTransitionAllowed_TerminalStatesHaveNoOutgoing(t *testing.T) {
	for _, from := range domain.TerminalStatuses {
		assert.True(t, from.IsTerminal())
		for _, to := range allStatuses {
			assert.False(t, domain.IsTransitionAllowed(from, to), "%s -> %s", from, to)
		}
	}
}

func TestPosterLabel(t *testing.T) {
	assert.Equal(t, "pending", domain.StatusAwaitingPoster.PosterLabel())
	assert.Equal(t, "accepted", domain.StatusAwaitingLandlord.PosterLabel())
	assert.Equal(t, "accepted", domain.StatusApproved.PosterLabel())
	assert.Equal(t, "rejected", domain.StatusRejected.PosterLabel())
}

// ── Poster decision ────────────────────────────────────────────────────────

func TestApplyPosterDecision_AcceptAwaitsLandlord(t *testing.T) {
	req := pendingRequest()
	at := time.Now()

	next, err := req.ApplyPosterDecision(1, domain.PosterAccept, at)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusAwaitingLandlord, next.Status)
	assert.Nil(t, next.ContractID)
	assert.Nil(t, next.DecidedAt)
	assert.NoError(t, next.CheckInvariants())
	assert.Equal(t, domain.StatusAwaitingPoster, req.Status, "receiver must not change")
}

func TestApplyPosterDecision_RejectIsTerminal(t *testing.T) {
	req := pendingRequest()

	next, err := req.ApplyPosterDecision(1, domain.PosterReject, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, next.Status)
	require.NotNil(t, next.RejectedBy)
	assert.Equal(t, domain.DeciderPoster, *next.RejectedBy)
	require.NotNil(t, next.DecidedAt)

	_, err = next.ApplyPosterDecision(1, domain.PosterAccept, time.Now())
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
}

func TestApplyPosterDecision_WrongCallerForbidden(t *testing.T) {
	req := pendingRequest()
	_, err := req.ApplyPosterDecision(2, domain.PosterAccept, time.Now())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestApplyPosterDecision_NotPendingAlwaysInvalid(t *testing.T) {
	for _, st := range []domain.Status{domain.StatusAwaitingLandlord, domain.StatusApproved, domain.StatusRejected} {
		req := pendingRequest()
		req.Status = st
		for _, d := range []domain.PosterDecision{domain.PosterAccept, domain.PosterReject} {
			_, err := req.ApplyPosterDecision(1, d, time.Now())
			assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "%s on %s", d, st)
		}
	}
}

func TestApplyPosterDecision_UnknownDecision(t *testing.T) {
	req := pendingRequest()
	_, err := req.ApplyPosterDecision(1, domain.PosterDecision("maybe"), time.Now())
	assert.True(t, domain.IsValidation(err))
}

// ── Landlord decision ──────────────────────────────────────────────────────

func TestApplyLandlordDecision_ApproveSetsContract(t *testing.T) {
	req := pendingRequest()
	req.Status = domain.StatusAwaitingLandlord

	next, err := req.ApplyLandlordDecision(domain.LandlordApprove, "contract-9", time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, next.Status)
	require.NotNil(t, next.ContractID)
	assert.Equal(t, "contract-9", *next.ContractID)
	assert.NoError(t, next.CheckInvariants())
}

func TestApplyLandlordDecision_ApproveWithoutContractFails(t *testing.T) {
	req := pendingRequest()
	req.Status = domain.StatusAwaitingLandlord

	_, err := req.ApplyLandlordDecision(domain.LandlordApprove, "", time.Now())
	assert.Error(t, err)
}

func TestApplyLandlordDecision_RejectRecordsLandlord(t *testing.T) {
	req := pendingRequest()
	req.Status = domain.StatusAwaitingLandlord

	next, err := req.ApplyLandlordDecision(domain.LandlordReject, "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, next.Status)
	assert.Equal(t, domain.DeciderLandlord, *next.RejectedBy)
	assert.Nil(t, next.ContractID)
}

func TestApplyLandlordDecision_RequiresPosterAcceptance(t *testing.T) {
	req := pendingRequest()
	_, err := req.ApplyLandlordDecision(domain.LandlordApprove, "c", time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = req.ApplyLandlordDecision(domain.LandlordReject, "", time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "landlord cannot pre-empt the poster")
}

// ── Invariants ─────────────────────────────────────────────────────────────

func TestCheckInvariants_ContractIffApproved(t *testing.T) {
	contract := "c-1"
	for _, st := range allStatuses {
		req := pendingRequest()
		req.Status = st

		req.ContractID = nil
		if st == domain.StatusApproved {
			assert.Error(t, req.CheckInvariants(), "approved without contract")
		} else {
			assert.NoError(t, req.CheckInvariants())
		}

		req.ContractID = &contract
		if st == domain.StatusApproved {
			assert.NoError(t, req.CheckInvariants())
		} else {
			assert.Error(t, req.CheckInvariants(), "%s with contract", st)
		}
	}
}

func TestCheckInvariants_ScoreRange(t *testing.T) {
	req := pendingRequest()
	req.MatchScore = 101
	assert.Error(t, req.CheckInvariants())
	req.MatchScore = -1
	assert.Error(t, req.CheckInvariants())
}
