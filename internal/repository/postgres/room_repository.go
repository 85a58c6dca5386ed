package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/gdugdh24/roomshare-backend/internal/repository"
	"github.com/jmoiron/sqlx"
)

type roomRepository struct {
	db *sqlx.DB
}

func NewRoomRepository(db *sqlx.DB) repository.RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) GetByID(ctx context.Context, id int) (*domain.Room, error) {
	var room domain.Room
	query := `SELECT id, landlord_id, occupant_id, sharing_enabled, updated_at FROM rooms WHERE id = $1`
	err := r.db.GetContext(ctx, &room, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, storeError("get room", err)
	}
	return &room, nil
}

func (r *roomRepository) SetSharingEnabled(ctx context.Context, id int, enabled bool) (*domain.Room, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeError("begin tx", err)
	}
	defer tx.Rollback()

	room, err := setSharingFlag(ctx, tx, id, enabled)
	if err != nil {
		return nil, err
	}

	if !enabled {
		_, err = tx.ExecContext(ctx, `
			UPDATE room_sharing_requirements
			SET is_active = false, updated_at = CURRENT_TIMESTAMP
			WHERE room_id = $1 AND is_active = true
		`, id)
		if err != nil {
			return nil, storeError("deactivate requirements", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError("commit", err)
	}
	return room, nil
}

func setSharingFlag(ctx context.Context, tx *sqlx.Tx, id int, enabled bool) (*domain.Room, error) {
	var room domain.Room
	err := tx.GetContext(ctx, &room, `
		UPDATE rooms
		SET sharing_enabled = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING id, landlord_id, occupant_id, sharing_enabled, updated_at
	`, enabled, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, storeError("update room", err)
	}
	return &room, nil
}
