package repository

import (
	"context"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
)

// ListFilter selects matching requests for the read-side views. Zero values
// mean "no constraint".
type ListFilter struct {
	PosterID   int
	SeekerID   int
	LandlordID int
	Statuses   []domain.Status
	// OrderByDecision sorts by decided_at instead of created_at, newest first.
	OrderByDecision bool
	Limit           int
	Offset          int
}

type MatchingRequestRepository interface {
	Create(ctx context.Context, req *domain.MatchingRequest) error
	GetByID(ctx context.Context, id string) (*domain.MatchingRequest, error)
	HasActive(ctx context.Context, seekerID, roomID int) (bool, error)
	// Transition persists next only if the stored status still equals from.
	// A lost race yields domain.ErrInvalidStateTransition.
	Transition(ctx context.Context, from domain.Status, next *domain.MatchingRequest) error
	List(ctx context.Context, filter ListFilter) ([]*domain.MatchingRequest, error)
}

// Fresh returns the repository behind any caching layer wrapped around r, or
// r itself.
func Fresh(r MatchingRequestRepository) MatchingRequestRepository {
	if u, ok := r.(interface {
		Uncached() MatchingRequestRepository
	}); ok {
		return u.Uncached()
	}
	return r
}
