package sharing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/gdugdh24/roomshare-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/roomshare-backend/internal/repository"
	"github.com/gdugdh24/roomshare-backend/internal/usecase/validation"
	"go.uber.org/zap"
)

// Verifier returns the verified identity of a user or
// domain.ErrVerificationRequired.
type Verifier interface {
	GetVerification(ctx context.Context, userID int) (*domain.Verification, error)
}

type EventPublisher interface {
	SharingToggled(ctx context.Context, room *domain.Room)
}

type SharingUseCase struct {
	roomRepo         repository.RoomRepository
	requirementsRepo repository.RequirementsRepository
	verifier         Verifier
	events           EventPublisher
	validate         *validation.Validator
	logger           *zap.Logger
}

func NewSharingUseCase(
	roomRepo repository.RoomRepository,
	requirementsRepo repository.RequirementsRepository,
	verifier Verifier,
	events EventPublisher,
	logger *zap.Logger,
) *SharingUseCase {
	return &SharingUseCase{
		roomRepo:         roomRepo,
		requirementsRepo: requirementsRepo,
		verifier:         verifier,
		events:           events,
		validate:         validation.New(map[string]string{"ageMin": "ageRange", "ageMax": "ageRange"}),
		logger:           logger,
	}
}

// RequirementsRequest is the poster's form. Age and gender of the poster are
// never part of it; they come from the verification service.
type RequirementsRequest struct {
	RoomID           int      `json:"roomId" validate:"required,gt=0"`
	AgeMin           *int     `json:"ageMin" validate:"required,min=16,max=100"`
	AgeMax           *int     `json:"ageMax" validate:"required,min=16,max=100"`
	GenderPreference string   `json:"genderPreference" validate:"required,oneof=male female any"`
	DesiredTraits    []string `json:"desiredTraits" validate:"max=20,dive,max=50"`
	MaxPrice         *float64 `json:"maxPrice" validate:"required,gte=0"`
	PosterTraits     []string `json:"posterTraits" validate:"max=20,dive,max=50"`
}

type SetSharingRequest struct {
	SharingEnabled *bool `json:"sharingEnabled" validate:"required"`
}

type EnableSharingResponse struct {
	Room         *domain.Room               `json:"room"`
	Requirements *domain.RequirementsRecord `json:"requirements"`
}

// GetRoom returns the sharing state of a room.
func (uc *SharingUseCase) GetRoom(ctx context.Context, roomID int) (*domain.Room, error) {
	return uc.roomRepo.GetByID(ctx, roomID)
}

// GetRequirements returns the room's active requirements.
func (uc *SharingUseCase) GetRequirements(ctx context.Context, roomID int) (*domain.RequirementsRecord, error) {
	return uc.requirementsRepo.GetActiveByRoom(ctx, roomID)
}

// SetSharingEnabled flips the room's sharing flag. Turning sharing on needs
// requirements from the current occupant; turning it off deactivates them but
// leaves existing requests alone.
func (uc *SharingUseCase) SetSharingEnabled(ctx context.Context, callerID, roomID int, enabled bool) (*domain.Room, error) {
	room, err := uc.occupiedRoom(ctx, callerID, roomID)
	if err != nil {
		return nil, err
	}

	if enabled {
		rec, err := uc.requirementsRepo.GetActiveByRoom(ctx, roomID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to load requirements: %w", err)
		}
		if rec == nil || rec.PosterID != callerID {
			return nil, domain.NewValidationError("requirements", "requirements required")
		}
	}

	room, err = uc.roomRepo.SetSharingEnabled(ctx, room.ID, enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to update sharing: %w", err)
	}

	uc.toggled(ctx, room)
	return room, nil
}

// SubmitRequirements creates or replaces the poster's requirements without
// touching the sharing flag.
func (uc *SharingUseCase) SubmitRequirements(ctx context.Context, callerID int, req *RequirementsRequest) (*domain.RequirementsRecord, error) {
	rec, err := uc.prepare(ctx, callerID, req)
	if err != nil {
		return nil, err
	}

	if err := uc.requirementsRepo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save requirements: %w", err)
	}

	uc.logger.Info("requirements saved", zap.Int("room_id", rec.RoomID), zap.Int("poster_id", callerID))
	return rec, nil
}

// EnableSharing saves requirements and turns sharing on in one commit. Nothing
// is written unless validation and the verification lookup succeed.
func (uc *SharingUseCase) EnableSharing(ctx context.Context, callerID int, req *RequirementsRequest) (*EnableSharingResponse, error) {
	rec, err := uc.prepare(ctx, callerID, req)
	if err != nil {
		return nil, err
	}

	room, err := uc.requirementsRepo.UpsertAndEnable(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to enable sharing: %w", err)
	}

	uc.toggled(ctx, room)
	return &EnableSharingResponse{Room: room, Requirements: rec}, nil
}

func (uc *SharingUseCase) prepare(ctx context.Context, callerID int, req *RequirementsRequest) (*domain.RequirementsRecord, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, err
	}

	rec := &domain.RequirementsRecord{
		RoomID:           req.RoomID,
		PosterID:         callerID,
		AgeMin:           *req.AgeMin,
		AgeMax:           *req.AgeMax,
		GenderPreference: domain.GenderPreference(req.GenderPreference),
		DesiredTraits:    domain.NormalizeTraits(req.DesiredTraits),
		MaxPrice:         *req.MaxPrice,
		PosterTraits:     domain.NormalizeTraits(req.PosterTraits),
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	if _, err := uc.occupiedRoom(ctx, callerID, req.RoomID); err != nil {
		return nil, err
	}

	v, err := uc.verifier.GetVerification(ctx, callerID)
	if err != nil {
		return nil, err
	}
	rec.PosterAge = v.Age
	rec.PosterGender = v.Gender
	return rec, nil
}

func (uc *SharingUseCase) occupiedRoom(ctx context.Context, callerID, roomID int) (*domain.Room, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsOccupant(callerID) {
		return nil, domain.ErrForbidden
	}
	return room, nil
}

func (uc *SharingUseCase) toggled(ctx context.Context, room *domain.Room) {
	metrics.SharingToggles.WithLabelValues(strconv.FormatBool(room.SharingEnabled)).Inc()
	uc.logger.Info("room sharing updated",
		zap.Int("room_id", room.ID),
		zap.Bool("sharing_enabled", room.SharingEnabled),
	)
	uc.events.SharingToggled(ctx, room)
}
