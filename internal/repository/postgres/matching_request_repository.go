package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/gdugdh24/roomshare-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const matchingRequestColumns = `
	mr.id, mr.room_id, mr.post_id, mr.poster_id, mr.seeker_id, mr.match_score,
	mr.status, mr.message, mr.requested_move_in_date, mr.requested_duration_months,
	mr.explanation, mr.rejected_by, mr.contract_id, mr.decided_at,
	mr.created_at, mr.updated_at`

// activeRequestIndex is the partial unique index over (seeker_id, room_id)
// for non-terminal statuses.
const activeRequestIndex = "matching_requests_one_active_per_seeker_room"

type matchingRequestRepository struct {
	db *sqlx.DB
}

func NewMatchingRequestRepository(db *sqlx.DB) repository.MatchingRequestRepository {
	return &matchingRequestRepository{db: db}
}

func (r *matchingRequestRepository) Create(ctx context.Context, req *domain.MatchingRequest) error {
	query := `
		INSERT INTO matching_requests (
			id, room_id, post_id, poster_id, seeker_id, match_score, status,
			message, requested_move_in_date, requested_duration_months, explanation
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		req.ID, req.RoomID, req.PostID, req.PosterID, req.SeekerID, req.MatchScore, req.Status,
		req.Message, req.RequestedMoveInDate, req.RequestedDurationMonths, req.Explanation,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == activeRequestIndex {
			return domain.ErrDuplicateRequest
		}
		return storeError("insert matching request", err)
	}
	return nil
}

func (r *matchingRequestRepository) GetByID(ctx context.Context, id string) (*domain.MatchingRequest, error) {
	var req domain.MatchingRequest
	query := `SELECT ` + matchingRequestColumns + ` FROM matching_requests mr WHERE mr.id = $1`
	err := r.db.GetContext(ctx, &req, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, storeError("get matching request", err)
	}
	return &req, nil
}

func (r *matchingRequestRepository) HasActive(ctx context.Context, seekerID, roomID int) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM matching_requests
			WHERE seeker_id = $1 AND room_id = $2 AND status = ANY($3)
		)
	`
	err := r.db.QueryRowContext(ctx, query, seekerID, roomID, pq.Array(statusStrings(domain.ActiveStatuses))).Scan(&exists)
	if err != nil {
		return false, storeError("check active request", err)
	}
	return exists, nil
}

func (r *matchingRequestRepository) Transition(ctx context.Context, from domain.Status, next *domain.MatchingRequest) error {
	query := `
		UPDATE matching_requests
		SET status = $1, rejected_by = $2, contract_id = $3, decided_at = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		next.Status, next.RejectedBy, next.ContractID, next.DecidedAt, next.UpdatedAt,
		next.ID, from,
	)
	if err != nil {
		return storeError("transition matching request", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return storeError("transition matching request", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: request %s is no longer %s", domain.ErrInvalidStateTransition, next.ID, from)
	}
	return nil
}

func (r *matchingRequestRepository) List(ctx context.Context, f repository.ListFilter) ([]*domain.MatchingRequest, error) {
	requests := []*domain.MatchingRequest{}

	query := `SELECT ` + matchingRequestColumns + ` FROM matching_requests mr`
	if f.LandlordID != 0 {
		query += ` JOIN rooms r ON r.id = mr.room_id`
	}
	query += ` WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if f.PosterID != 0 {
		query += fmt.Sprintf(" AND mr.poster_id = $%d", argCount)
		args = append(args, f.PosterID)
		argCount++
	}
	if f.SeekerID != 0 {
		query += fmt.Sprintf(" AND mr.seeker_id = $%d", argCount)
		args = append(args, f.SeekerID)
		argCount++
	}
	if f.LandlordID != 0 {
		query += fmt.Sprintf(" AND r.landlord_id = $%d", argCount)
		args = append(args, f.LandlordID)
		argCount++
	}
	if len(f.Statuses) > 0 {
		query += fmt.Sprintf(" AND mr.status = ANY($%d)", argCount)
		args = append(args, pq.Array(statusStrings(f.Statuses)))
		argCount++
	}

	if f.OrderByDecision {
		query += " ORDER BY mr.decided_at DESC NULLS LAST, mr.updated_at DESC"
	} else {
		query += " ORDER BY mr.created_at DESC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, limit, f.Offset)

	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, storeError("list matching requests", err)
	}
	return requests, nil
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
