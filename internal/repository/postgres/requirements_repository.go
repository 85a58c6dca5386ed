package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/gdugdh24/roomshare-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type requirementsRepository struct {
	db *sqlx.DB
}

func NewRequirementsRepository(db *sqlx.DB) repository.RequirementsRepository {
	return &requirementsRepository{db: db}
}

const upsertRequirementsQuery = `
	INSERT INTO room_sharing_requirements (
		room_id, poster_id, age_min, age_max, gender_preference, desired_traits,
		max_price, poster_traits, poster_age, poster_gender, is_active
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true)
	ON CONFLICT (room_id, poster_id) DO UPDATE
	SET age_min = EXCLUDED.age_min, age_max = EXCLUDED.age_max,
	    gender_preference = EXCLUDED.gender_preference, desired_traits = EXCLUDED.desired_traits,
	    max_price = EXCLUDED.max_price, poster_traits = EXCLUDED.poster_traits,
	    poster_age = EXCLUDED.poster_age, poster_gender = EXCLUDED.poster_gender,
	    is_active = true, updated_at = CURRENT_TIMESTAMP
	RETURNING id, is_active, created_at, updated_at
`

func upsertRequirements(ctx context.Context, q sqlx.QueryerContext, rec *domain.RequirementsRecord) error {
	return q.QueryRowxContext(ctx, upsertRequirementsQuery,
		rec.RoomID, rec.PosterID, rec.AgeMin, rec.AgeMax, rec.GenderPreference,
		pq.Array(rec.DesiredTraits), rec.MaxPrice, pq.Array(rec.PosterTraits),
		rec.PosterAge, rec.PosterGender,
	).Scan(&rec.ID, &rec.IsActive, &rec.CreatedAt, &rec.UpdatedAt)
}

func (r *requirementsRepository) Upsert(ctx context.Context, rec *domain.RequirementsRecord) error {
	if err := upsertRequirements(ctx, r.db, rec); err != nil {
		return storeError("upsert requirements", err)
	}
	return nil
}

func (r *requirementsRepository) UpsertAndEnable(ctx context.Context, rec *domain.RequirementsRecord) (*domain.Room, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeError("begin tx", err)
	}
	defer tx.Rollback()

	if err := upsertRequirements(ctx, tx, rec); err != nil {
		return nil, storeError("upsert requirements", err)
	}
	room, err := setSharingFlag(ctx, tx, rec.RoomID, true)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storeError("commit", err)
	}
	return room, nil
}

func (r *requirementsRepository) GetActiveByRoom(ctx context.Context, roomID int) (*domain.RequirementsRecord, error) {
	var rec domain.RequirementsRecord
	query := `
		SELECT id, room_id, poster_id, age_min, age_max, gender_preference, desired_traits,
		       max_price, poster_traits, poster_age, poster_gender, is_active,
		       created_at, updated_at
		FROM room_sharing_requirements
		WHERE room_id = $1 AND is_active = true
		ORDER BY updated_at DESC
		LIMIT 1
	`
	err := r.db.QueryRowContext(ctx, query, roomID).Scan(
		&rec.ID, &rec.RoomID, &rec.PosterID, &rec.AgeMin, &rec.AgeMax, &rec.GenderPreference,
		pq.Array(&rec.DesiredTraits), &rec.MaxPrice, pq.Array(&rec.PosterTraits),
		&rec.PosterAge, &rec.PosterGender, &rec.IsActive,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRequirementsNotFound
		}
		return nil, storeError("get requirements", err)
	}
	return &rec, nil
}
