package repository

import (
	"context"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
)

type RequirementsRepository interface {
	// Upsert creates or replaces the record for (room, poster) and marks it active.
	Upsert(ctx context.Context, rec *domain.RequirementsRecord) error
	// UpsertAndEnable is Upsert plus enabling sharing on the room, atomically.
	UpsertAndEnable(ctx context.Context, rec *domain.RequirementsRecord) (*domain.Room, error)
	GetActiveByRoom(ctx context.Context, roomID int) (*domain.RequirementsRecord, error)
}
