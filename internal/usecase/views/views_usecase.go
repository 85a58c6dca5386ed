package views

import (
	"context"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/gdugdh24/roomshare-backend/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RoomDirectory supplies display data for rooms.
type RoomDirectory interface {
	RoomSummary(ctx context.Context, roomID int) (*domain.RoomSummary, error)
}

const (
	defaultPageSize = 50
	maxPageSize     = 100
	enrichWorkers   = 8
)

type ViewsUseCase struct {
	requestRepo        repository.MatchingRequestRepository
	roomRepo           repository.RoomRepository
	directory          RoomDirectory
	recommendThreshold int
	logger             *zap.Logger
}

func NewViewsUseCase(
	requestRepo repository.MatchingRequestRepository,
	roomRepo repository.RoomRepository,
	directory RoomDirectory,
	recommendThreshold int,
	logger *zap.Logger,
) *ViewsUseCase {
	return &ViewsUseCase{
		requestRepo:        requestRepo,
		roomRepo:           roomRepo,
		directory:          directory,
		recommendThreshold: recommendThreshold,
		logger:             logger,
	}
}

// Page selects a window of a list view.
type Page struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// RequestItem is a matching request as shown in lists. Status keeps the
// landlord-facing vocabulary and PosterStatus the poster-facing one; both
// derive from the same stored status. Enrichment fields are empty when the
// listing service could not describe the room.
type RequestItem struct {
	*domain.MatchingRequest
	PosterStatus  string `json:"posterStatus"`
	IsRecommended bool   `json:"isRecommended"`
	RoomNumber    string `json:"roomNumber,omitempty"`
	BuildingName  string `json:"buildingName,omitempty"`
	Address       string `json:"address,omitempty"`
}

// ToApprove lists requests waiting for the caller's decision: posters see
// requests awaiting them, landlords see requests the poster has accepted.
func (uc *ViewsUseCase) ToApprove(ctx context.Context, callerID int, role domain.Role, page Page) ([]*RequestItem, error) {
	filter, err := roleFilter(callerID, role, domain.StatusAwaitingPoster, domain.StatusAwaitingLandlord)
	if err != nil {
		return nil, err
	}
	return uc.list(ctx, filter, page)
}

// History lists decided requests the caller took part in, latest decision first.
func (uc *ViewsUseCase) History(ctx context.Context, callerID int, role domain.Role, page Page) ([]*RequestItem, error) {
	filter, err := roleFilter(callerID, role, "", "")
	if err != nil {
		return nil, err
	}
	filter.Statuses = domain.TerminalStatuses
	filter.OrderByDecision = true
	return uc.list(ctx, filter, page)
}

// Mine lists every request the seeker has sent, newest first.
func (uc *ViewsUseCase) Mine(ctx context.Context, seekerID int, page Page) ([]*RequestItem, error) {
	return uc.list(ctx, repository.ListFilter{SeekerID: seekerID}, page)
}

// Get returns one request to its seeker, poster or the room's landlord.
func (uc *ViewsUseCase) Get(ctx context.Context, callerID int, requestID string) (*RequestItem, error) {
	mr, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !mr.InvolvesUser(callerID) {
		room, err := uc.roomRepo.GetByID(ctx, mr.RoomID)
		if err != nil {
			return nil, err
		}
		if room.LandlordID != callerID {
			return nil, domain.ErrForbidden
		}
	}
	items := uc.project([]*domain.MatchingRequest{mr})
	uc.enrich(ctx, items)
	return items[0], nil
}

func roleFilter(callerID int, role domain.Role, posterStatus, landlordStatus domain.Status) (repository.ListFilter, error) {
	switch role {
	case domain.RoleTenant:
		f := repository.ListFilter{PosterID: callerID}
		if posterStatus != "" {
			f.Statuses = []domain.Status{posterStatus}
		}
		return f, nil
	case domain.RoleLandlord:
		f := repository.ListFilter{LandlordID: callerID}
		if landlordStatus != "" {
			f.Statuses = []domain.Status{landlordStatus}
		}
		return f, nil
	}
	return repository.ListFilter{}, domain.ErrForbidden
}

func (uc *ViewsUseCase) list(ctx context.Context, filter repository.ListFilter, page Page) ([]*RequestItem, error) {
	page = page.normalize()
	filter.Limit = page.Limit
	filter.Offset = page.Offset

	requests, err := uc.requestRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := uc.project(requests)
	uc.enrich(ctx, items)
	return items, nil
}

type roomSummary struct {
	roomID  int
	summary *domain.RoomSummary
}

func (uc *ViewsUseCase) project(requests []*domain.MatchingRequest) []*RequestItem {
	items := make([]*RequestItem, 0, len(requests))
	for _, mr := range requests {
		items = append(items, &RequestItem{
			MatchingRequest: mr,
			PosterStatus:    mr.Status.PosterLabel(),
			IsRecommended:   mr.MatchScore >= uc.recommendThreshold,
		})
	}
	return items
}

// enrich looks each distinct room up once. A failed lookup only leaves that
// room's items without display fields. Without a directory nothing is added.
func (uc *ViewsUseCase) enrich(ctx context.Context, items []*RequestItem) {
	if uc.directory == nil {
		return
	}
	byRoom := map[int][]*RequestItem{}
	for _, it := range items {
		byRoom[it.RoomID] = append(byRoom[it.RoomID], it)
	}

	results := make(chan roomSummary, len(byRoom))
	var g errgroup.Group
	g.SetLimit(enrichWorkers)
	for roomID := range byRoom {
		g.Go(func() error {
			s, err := uc.directory.RoomSummary(ctx, roomID)
			if err != nil {
				uc.logger.Warn("room enrichment unavailable", zap.Int("room_id", roomID), zap.Error(err))
				return nil
			}
			if s != nil {
				results <- roomSummary{roomID: roomID, summary: s}
			}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	summaries := make(map[int]*domain.RoomSummary, len(byRoom))
	for r := range results {
		summaries[r.roomID] = r.summary
	}
	for roomID, s := range summaries {
		for _, it := range byRoom[roomID] {
			it.RoomNumber = s.RoomNumber
			it.BuildingName = s.BuildingName
			it.Address = s.Address
		}
	}
}
