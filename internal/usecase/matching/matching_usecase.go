package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/gdugdh24/roomshare-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/roomshare-backend/internal/repository"
	"github.com/gdugdh24/roomshare-backend/internal/usecase/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ScoreEngine interface {
	Score(ctx context.Context, seekerID int, req *domain.RequirementsRecord) (int, error)
}

type ContractService interface {
	Create(ctx context.Context, req *domain.MatchingRequest, landlordID int) (string, error)
	Cancel(ctx context.Context, contractID string) error
}

// Explainer writes an optional human-readable note on why a seeker fits.
type Explainer interface {
	ExplainMatch(ctx context.Context, req *domain.RequirementsRecord, seekerMessage string, score int) (string, error)
}

type EventPublisher interface {
	RequestTransitioned(ctx context.Context, from domain.Status, req *domain.MatchingRequest)
}

type Options struct {
	// DecisionTimeout bounds a decision once it is detached from the caller.
	DecisionTimeout time.Duration
	// ExplainTimeout caps the optional explanation call during Create.
	ExplainTimeout time.Duration
}

type MatchingUseCase struct {
	requestRepo      repository.MatchingRequestRepository
	committed        repository.MatchingRequestRepository
	roomRepo         repository.RoomRepository
	requirementsRepo repository.RequirementsRepository
	scores           ScoreEngine
	contracts        ContractService
	explainer        Explainer
	events           EventPublisher
	validate         *validation.Validator
	logger           *zap.Logger
	opts             Options
	now              func() time.Time
}

// NewMatchingUseCase wires the orchestrator. explainer may be nil.
func NewMatchingUseCase(
	requestRepo repository.MatchingRequestRepository,
	roomRepo repository.RoomRepository,
	requirementsRepo repository.RequirementsRepository,
	scores ScoreEngine,
	contracts ContractService,
	explainer Explainer,
	events EventPublisher,
	logger *zap.Logger,
	opts Options,
) *MatchingUseCase {
	if opts.DecisionTimeout <= 0 {
		opts.DecisionTimeout = 15 * time.Second
	}
	if opts.ExplainTimeout <= 0 {
		opts.ExplainTimeout = 3 * time.Second
	}
	return &MatchingUseCase{
		requestRepo:      requestRepo,
		committed:        repository.Fresh(requestRepo),
		roomRepo:         roomRepo,
		requirementsRepo: requirementsRepo,
		scores:           scores,
		contracts:        contracts,
		explainer:        explainer,
		events:           events,
		validate:         validation.New(nil),
		logger:           logger,
		opts:             opts,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequest is a seeker's application to share a room.
type CreateRequest struct {
	RoomID              int    `json:"roomId" validate:"required,gt=0"`
	PostID              int    `json:"postId" validate:"required,gt=0"`
	Message             string `json:"message" validate:"max=1000"`
	RequestedMoveInDate string `json:"requestedMoveInDate" validate:"required"`
	RequestedDuration   int    `json:"requestedDuration" validate:"required,min=1,max=60"`
}

// Create opens a matching request in AwaitingPoster with a score snapshot.
func (uc *MatchingUseCase) Create(ctx context.Context, seekerID int, req *CreateRequest) (*domain.MatchingRequest, error) {
	mr, err := uc.create(ctx, seekerID, req)
	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, domain.ErrDuplicateRequest):
		outcome = metrics.OutcomeConflict
	case err != nil:
		outcome = metrics.OutcomeError
	}
	metrics.RequestsCreated.WithLabelValues(outcome).Inc()
	return mr, err
}

func (uc *MatchingUseCase) create(ctx context.Context, seekerID int, req *CreateRequest) (*domain.MatchingRequest, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, err
	}
	moveIn, err := parseMoveInDate(req.RequestedMoveInDate)
	if err != nil {
		return nil, err
	}
	today := uc.now().Truncate(24 * time.Hour)
	if moveIn.Before(today) {
		return nil, domain.NewValidationError("requestedMoveInDate", "must not be in the past")
	}

	room, err := uc.roomRepo.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.SharingEnabled {
		return nil, domain.ErrRoomNotSharing
	}
	requirements, err := uc.requirementsRepo.GetActiveByRoom(ctx, room.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrRoomNotSharing
		}
		return nil, fmt.Errorf("failed to load requirements: %w", err)
	}
	if requirements.PosterID == seekerID {
		return nil, domain.NewValidationError("roomId", "cannot request to share your own room")
	}

	// The partial unique index catches concurrent duplicates this misses.
	active, err := uc.requestRepo.HasActive(ctx, seekerID, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active requests: %w", err)
	}
	if active {
		return nil, domain.ErrDuplicateRequest
	}

	score, err := uc.scores.Score(ctx, seekerID, requirements)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	mr := &domain.MatchingRequest{
		ID:                      uuid.NewString(),
		RoomID:                  room.ID,
		PostID:                  req.PostID,
		PosterID:                requirements.PosterID,
		SeekerID:                seekerID,
		MatchScore:              score,
		Status:                  domain.StatusAwaitingPoster,
		Message:                 req.Message,
		RequestedMoveInDate:     moveIn,
		RequestedDurationMonths: req.RequestedDuration,
		Explanation:             uc.explain(ctx, requirements, req.Message, score),
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if err := uc.requestRepo.Create(ctx, mr); err != nil {
		if errors.Is(err, domain.ErrDuplicateRequest) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create matching request: %w", err)
	}

	uc.logger.Info("matching request created",
		zap.String("request_id", mr.ID),
		zap.Int("room_id", mr.RoomID),
		zap.Int("seeker_id", seekerID),
		zap.Int("match_score", score),
	)
	uc.events.RequestTransitioned(ctx, "", mr)
	return mr, nil
}

// parseMoveInDate accepts a calendar date (2006-01-02) or an RFC 3339
// timestamp and keeps only the UTC day.
func parseMoveInDate(s string) (time.Time, error) {
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Truncate(24 * time.Hour), nil
	}
	return time.Time{}, domain.NewValidationError("requestedMoveInDate", "must be a date like 2026-11-01")
}

func (uc *MatchingUseCase) explain(ctx context.Context, requirements *domain.RequirementsRecord, message string, score int) *string {
	if uc.explainer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, uc.opts.ExplainTimeout)
	defer cancel()
	text, err := uc.explainer.ExplainMatch(ctx, requirements, message, score)
	if err != nil || text == "" {
		uc.logger.Warn("match explanation unavailable", zap.Int("room_id", requirements.RoomID), zap.Error(err))
		return nil
	}
	return &text
}

// Decide applies the poster's accept or reject to a request awaiting them.
func (uc *MatchingUseCase) Decide(ctx context.Context, requestID string, posterID int, decision domain.PosterDecision) (*domain.MatchingRequest, error) {
	ctx, cancel := uc.detach(ctx)
	defer cancel()

	cur, err := uc.committed.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	next, err := cur.ApplyPosterDecision(posterID, decision, uc.now())
	if err != nil {
		return nil, uc.rejected(cur, string(decision), err)
	}
	if err := uc.commit(ctx, cur.Status, next); err != nil {
		return nil, err
	}
	return next, nil
}

// LandlordDecide is the final gate. Approval creates the contract first and
// commits only with its id; if the commit loses a race to a different outcome
// the contract is cancelled again.
func (uc *MatchingUseCase) LandlordDecide(ctx context.Context, requestID string, landlordID int, decision domain.LandlordDecision) (*domain.MatchingRequest, error) {
	ctx, cancel := uc.detach(ctx)
	defer cancel()

	cur, err := uc.committed.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	room, err := uc.roomRepo.GetByID(ctx, cur.RoomID)
	if err != nil {
		return nil, err
	}
	if room.LandlordID != landlordID {
		return nil, uc.rejected(cur, string(decision), domain.ErrForbidden)
	}

	if decision != domain.LandlordApprove {
		next, err := cur.ApplyLandlordDecision(decision, "", uc.now())
		if err != nil {
			return nil, uc.rejected(cur, string(decision), err)
		}
		if err := uc.commit(ctx, cur.Status, next); err != nil {
			return nil, err
		}
		return next, nil
	}

	if !domain.IsTransitionAllowed(cur.Status, domain.StatusApproved) {
		err := fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStateTransition, cur.Status, domain.StatusApproved)
		return nil, uc.rejected(cur, string(decision), err)
	}

	contractID, err := uc.contracts.Create(ctx, cur, landlordID)
	if err != nil {
		metrics.RequestTransitions.WithLabelValues(string(domain.StatusApproved), metrics.OutcomeError).Inc()
		uc.logger.Error("contract creation failed, request stays with landlord",
			zap.String("request_id", cur.ID),
			zap.Error(err),
		)
		return nil, err
	}

	next, err := cur.ApplyLandlordDecision(domain.LandlordApprove, contractID, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.commit(ctx, cur.Status, next); err != nil {
		if errors.Is(err, domain.ErrInvalidStateTransition) {
			return uc.lostApproval(ctx, cur.ID, contractID, err)
		}
		// The write may have landed. Contract creation is keyed by the request
		// id, so a retry gets the same contract back.
		uc.logger.Error("approval outcome unknown, contract kept",
			zap.String("request_id", cur.ID),
			zap.String("contract_id", contractID),
			zap.Error(err),
		)
		return nil, err
	}
	return next, nil
}

// lostApproval settles an approval whose compare-and-set failed. Contract ids
// are per request, so a concurrent approval that won holds the same contract;
// that outcome is returned as is. Otherwise the contract is orphaned and is
// cancelled.
func (uc *MatchingUseCase) lostApproval(ctx context.Context, requestID, contractID string, raceErr error) (*domain.MatchingRequest, error) {
	stored, err := uc.committed.GetByID(ctx, requestID)
	if err != nil {
		uc.logger.Error("cannot verify approval race, contract kept",
			zap.String("request_id", requestID),
			zap.String("contract_id", contractID),
			zap.Error(err),
		)
		return nil, raceErr
	}
	if stored.Status == domain.StatusApproved && stored.ContractID != nil && *stored.ContractID == contractID {
		uc.logger.Info("concurrent approval already committed this contract",
			zap.String("request_id", requestID),
			zap.String("contract_id", contractID),
		)
		return stored, nil
	}
	uc.compensate(ctx, requestID, contractID)
	return nil, raceErr
}

func (uc *MatchingUseCase) compensate(ctx context.Context, requestID, contractID string) {
	metrics.ContractCompensations.Inc()
	if err := uc.contracts.Cancel(ctx, contractID); err != nil {
		uc.logger.Error("orphan contract could not be cancelled",
			zap.String("request_id", requestID),
			zap.String("contract_id", contractID),
			zap.Error(err),
		)
		return
	}
	uc.logger.Warn("orphan contract cancelled",
		zap.String("request_id", requestID),
		zap.String("contract_id", contractID),
	)
}

// commit persists next with a compare-and-set on the previous status.
func (uc *MatchingUseCase) commit(ctx context.Context, from domain.Status, next *domain.MatchingRequest) error {
	if err := next.CheckInvariants(); err != nil {
		return err
	}
	to := string(next.Status)
	if err := uc.requestRepo.Transition(ctx, from, next); err != nil {
		if errors.Is(err, domain.ErrInvalidStateTransition) {
			metrics.RequestTransitions.WithLabelValues(to, metrics.OutcomeConflict).Inc()
			uc.logger.Info("transition lost a race", zap.String("request_id", next.ID), zap.String("from", string(from)))
			return err
		}
		metrics.RequestTransitions.WithLabelValues(to, metrics.OutcomeError).Inc()
		return fmt.Errorf("failed to persist transition: %w", err)
	}

	metrics.RequestTransitions.WithLabelValues(to, metrics.OutcomeOK).Inc()
	uc.logger.Info("matching request transitioned",
		zap.String("request_id", next.ID),
		zap.String("from", string(from)),
		zap.String("to", to),
	)
	uc.events.RequestTransitioned(ctx, from, next)
	return nil
}

func (uc *MatchingUseCase) rejected(cur *domain.MatchingRequest, decision string, err error) error {
	uc.logger.Debug("decision refused",
		zap.String("request_id", cur.ID),
		zap.String("status", string(cur.Status)),
		zap.String("decision", decision),
		zap.Error(err),
	)
	return err
}

// detach keeps a submitted decision running when the caller goes away.
func (uc *MatchingUseCase) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), uc.opts.DecisionTimeout)
}
