// Package memory keeps rooms, requirements and matching requests in process.
// It mirrors the constraints of the postgres schema (compare-and-set
// transitions, one active request per seeker and room).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/gdugdh24/roomshare-backend/internal/repository"
)

type Store struct {
	mu           sync.Mutex
	rooms        map[int]domain.Room
	requirements []*domain.RequirementsRecord
	requests     map[string]domain.MatchingRequest
	order        []string
}

func NewStore() *Store {
	return &Store{
		rooms:    map[int]domain.Room{},
		requests: map[string]domain.MatchingRequest{},
	}
}

// PutRoom inserts or replaces a room, as the marketplace backend would.
func (s *Store) PutRoom(room domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
}

func (s *Store) Rooms() repository.RoomRepository { return roomRepo{s} }

func (s *Store) Requirements() repository.RequirementsRepository { return requirementsRepo{s} }

func (s *Store) MatchingRequests() repository.MatchingRequestRepository { return requestRepo{s} }

type roomRepo struct{ s *Store }

func (r roomRepo) GetByID(_ context.Context, id int) (*domain.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return &room, nil
}

func (r roomRepo) SetSharingEnabled(_ context.Context, id int, enabled bool) (*domain.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.setSharing(id, enabled)
}

func (s *Store) setSharing(id int, enabled bool) (*domain.Room, error) {
	room, ok := s.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	room.SharingEnabled = enabled
	room.UpdatedAt = time.Now().UTC()
	s.rooms[id] = room
	if !enabled {
		for _, rec := range s.requirements {
			if rec.RoomID == id {
				rec.IsActive = false
			}
		}
	}
	return &room, nil
}

type requirementsRepo struct{ s *Store }

func (r requirementsRepo) Upsert(_ context.Context, rec *domain.RequirementsRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.upsert(rec)
	return nil
}

func (r requirementsRepo) UpsertAndEnable(_ context.Context, rec *domain.RequirementsRecord) (*domain.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rooms[rec.RoomID]; !ok {
		return nil, domain.ErrRoomNotFound
	}
	r.s.upsert(rec)
	return r.s.setSharing(rec.RoomID, true)
}

func (s *Store) upsert(rec *domain.RequirementsRecord) {
	now := time.Now().UTC()
	rec.IsActive = true
	rec.UpdatedAt = now
	for i, existing := range s.requirements {
		if existing.RoomID == rec.RoomID && existing.PosterID == rec.PosterID {
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
			cp := *rec
			s.requirements[i] = &cp
			return
		}
	}
	rec.ID = len(s.requirements) + 1
	rec.CreatedAt = now
	cp := *rec
	s.requirements = append(s.requirements, &cp)
}

func (r requirementsRepo) GetActiveByRoom(_ context.Context, roomID int) (*domain.RequirementsRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *domain.RequirementsRecord
	for _, rec := range r.s.requirements {
		if rec.RoomID == roomID && rec.IsActive && (found == nil || rec.UpdatedAt.After(found.UpdatedAt)) {
			found = rec
		}
	}
	if found == nil {
		return nil, domain.ErrRequirementsNotFound
	}
	cp := *found
	return &cp, nil
}

type requestRepo struct{ s *Store }

func (r requestRepo) Create(_ context.Context, req *domain.MatchingRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[req.ID]; ok {
		return fmt.Errorf("matching request %s already exists", req.ID)
	}
	if r.s.hasActive(req.SeekerID, req.RoomID) {
		return domain.ErrDuplicateRequest
	}
	r.s.requests[req.ID] = *req
	r.s.order = append(r.s.order, req.ID)
	return nil
}

func (r requestRepo) GetByID(_ context.Context, id string) (*domain.MatchingRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return &req, nil
}

func (r requestRepo) HasActive(_ context.Context, seekerID, roomID int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.hasActive(seekerID, roomID), nil
}

func (s *Store) hasActive(seekerID, roomID int) bool {
	for _, req := range s.requests {
		if req.SeekerID == seekerID && req.RoomID == roomID && !req.Status.IsTerminal() {
			return true
		}
	}
	return false
}

func (r requestRepo) Transition(_ context.Context, from domain.Status, next *domain.MatchingRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.requests[next.ID]
	if !ok || cur.Status != from {
		return fmt.Errorf("%w: request %s is no longer %s", domain.ErrInvalidStateTransition, next.ID, from)
	}
	cur.Status = next.Status
	cur.RejectedBy = next.RejectedBy
	cur.ContractID = next.ContractID
	cur.DecidedAt = next.DecidedAt
	cur.UpdatedAt = next.UpdatedAt
	r.s.requests[next.ID] = cur
	return nil
}

func (r requestRepo) List(_ context.Context, f repository.ListFilter) ([]*domain.MatchingRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.MatchingRequest{}
	for i := len(r.s.order) - 1; i >= 0; i-- {
		req := r.s.requests[r.s.order[i]]
		if !r.s.matches(req, f) {
			continue
		}
		cp := req
		out = append(out, &cp)
	}

	if f.OrderByDecision {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].DecidedAt, out[j].DecidedAt
			if a == nil || b == nil {
				return a != nil
			}
			return a.After(*b)
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}

	if f.Offset >= len(out) {
		return []*domain.MatchingRequest{}, nil
	}
	out = out[f.Offset:]
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) matches(req domain.MatchingRequest, f repository.ListFilter) bool {
	if f.PosterID != 0 && req.PosterID != f.PosterID {
		return false
	}
	if f.SeekerID != 0 && req.SeekerID != f.SeekerID {
		return false
	}
	if f.LandlordID != 0 && s.rooms[req.RoomID].LandlordID != f.LandlordID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, st := range f.Statuses {
		if req.Status == st {
			return true
		}
	}
	return false
}
