package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/rescue-service/internal/domain"
)

// RequestRepository encapsulates help request persistence. The transition
// methods are conditional writes: they only apply when the stored status
// still matches the expected one, so two racing callers cannot both win.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.HelpRequest) error
	GetByID(ctx context.Context, id string) (*domain.HelpRequest, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.HelpRequest, error)
	ActiveByRescuer(ctx context.Context, rescuerID string) (*domain.HelpRequest, error)
	// Accept transitions PENDING -> ACCEPTED iff the request is still
	// pending. Returns pgx.ErrNoRows when the conditional write matched
	// nothing; the caller decides between "not found" and "race lost".
	Accept(ctx context.Context, id, rescuerID, rescuerName string, at time.Time) (*domain.HelpRequest, error)
	// Release transitions ACCEPTED -> PENDING and clears the rescuer
	// fields. Returns the number of rows changed so callers can treat a
	// request that is already pending as a no-op.
	Release(ctx context.Context, id string) (int64, error)
	// Complete transitions ACCEPTED -> COMPLETED for the assigned rescuer
	// only, stamping completion time and the formatted rescue duration.
	Complete(ctx context.Context, id, rescuerID string, at time.Time, rescueTime string) (*domain.HelpRequest, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `
        id, requester_id, requester_name, latitude, longitude, address, photo_url,
        status, rescuer_id, rescuer_name, accepted_at, completed_at, rescue_time,
        rescuer_arrived, created_at`

func (r *requestRepository) Create(ctx context.Context, request *domain.HelpRequest) error {
	const query = `
        INSERT INTO help_requests (requester_id, requester_name, latitude, longitude, address, photo_url, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		request.RequesterID,
		request.RequesterName,
		request.Location.Latitude,
		request.Location.Longitude,
		request.Address,
		request.PhotoURL,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt)
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.HelpRequest, error) {
	return r.fetchSingle(ctx, `SELECT `+requestColumns+` FROM help_requests WHERE id=$1`, id)
}

func (r *requestRepository) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.HelpRequest, error) {
	// Insertion order, not distance order: the board shows requests as
	// they arrived.
	const query = `SELECT ` + requestColumns + `
        FROM help_requests WHERE status=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *requestRepository) ActiveByRescuer(ctx context.Context, rescuerID string) (*domain.HelpRequest, error) {
	const query = `SELECT ` + requestColumns + `
        FROM help_requests WHERE rescuer_id=$1 AND status=$2
        LIMIT 1`
	return r.fetchSingle(ctx, query, rescuerID, domain.RequestStatusAccepted)
}

func (r *requestRepository) Accept(ctx context.Context, id, rescuerID, rescuerName string, at time.Time) (*domain.HelpRequest, error) {
	const query = `
        UPDATE help_requests
        SET status=$1, rescuer_id=$2, rescuer_name=$3, accepted_at=$4
        WHERE id=$5 AND status=$6
        RETURNING ` + requestColumns
	return r.fetchSingle(ctx, query,
		domain.RequestStatusAccepted,
		rescuerID,
		rescuerName,
		at,
		id,
		domain.RequestStatusPending,
	)
}

func (r *requestRepository) Release(ctx context.Context, id string) (int64, error) {
	const query = `
        UPDATE help_requests
        SET status=$1, rescuer_id=NULL, rescuer_name=NULL, accepted_at=NULL
        WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query,
		domain.RequestStatusPending,
		id,
		domain.RequestStatusAccepted,
	)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *requestRepository) Complete(ctx context.Context, id, rescuerID string, at time.Time, rescueTime string) (*domain.HelpRequest, error) {
	const query = `
        UPDATE help_requests
        SET status=$1, completed_at=$2, rescue_time=$3, rescuer_arrived=TRUE
        WHERE id=$4 AND rescuer_id=$5 AND status=$6
        RETURNING ` + requestColumns
	return r.fetchSingle(ctx, query,
		domain.RequestStatusCompleted,
		at,
		rescueTime,
		id,
		rescuerID,
		domain.RequestStatusAccepted,
	)
}

func (r *requestRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.HelpRequest, error) {
	var request domain.HelpRequest
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&request.ID,
		&request.RequesterID,
		&request.RequesterName,
		&request.Location.Latitude,
		&request.Location.Longitude,
		&request.Address,
		&request.PhotoURL,
		&request.Status,
		&request.RescuerID,
		&request.RescuerName,
		&request.AcceptedAt,
		&request.CompletedAt,
		&request.RescueTime,
		&request.RescuerArrived,
		&request.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}

func scanRequests(rows pgx.Rows) ([]domain.HelpRequest, error) {
	var result []domain.HelpRequest
	for rows.Next() {
		var request domain.HelpRequest
		if err := rows.Scan(
			&request.ID,
			&request.RequesterID,
			&request.RequesterName,
			&request.Location.Latitude,
			&request.Location.Longitude,
			&request.Address,
			&request.PhotoURL,
			&request.Status,
			&request.RescuerID,
			&request.RescuerName,
			&request.AcceptedAt,
			&request.CompletedAt,
			&request.RescueTime,
			&request.RescuerArrived,
			&request.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}
