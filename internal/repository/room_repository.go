package repository

import (
	"context"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
)

type RoomRepository interface {
	GetByID(ctx context.Context, id int) (*domain.Room, error)
	// SetSharingEnabled flips the flag. Disabling also deactivates the room's
	// requirements record in the same transaction.
	SetSharingEnabled(ctx context.Context, id int, enabled bool) (*domain.Room, error)
}
