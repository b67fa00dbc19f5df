package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/rescue-service/internal/domain"
)

// UserRepository defines persistence access for accounts and profiles.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateCoordinates(ctx context.Context, id string, coords domain.Coordinates) error
	UpdatePhotoURL(ctx context.Context, id, photoURL string) error
	UpdateStats(ctx context.Context, id string, stats domain.RescuerStats) error
	MarkEmailVerified(ctx context.Context, id string) error
	RecordLogin(ctx context.Context, id string, at time.Time) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `
        id, name, email, password_hash, role, certification_id, birth_date,
        address, city, postal_code, latitude, longitude, photo_url,
        document_key, document_name, email_verified,
        missions_completed, people_helped, total_rescue_minutes, last_mission_at,
        created_at, updated_at, last_login_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, certification_id, birth_date,
                           address, city, postal_code, latitude, longitude, photo_url,
                           document_key, document_name, email_verified)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at, updated_at`

	lat, lon := coordsColumns(user.Coordinates)
	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CertificationID,
		user.BirthDate,
		user.Address,
		user.City,
		user.PostalCode,
		lat,
		lon,
		user.PhotoURL,
		user.DocumentKey,
		user.DocumentName,
		user.EmailVerified,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, certification_id=$4, birth_date=$5,
            address=$6, city=$7, postal_code=$8, photo_url=$9, updated_at=NOW()
        WHERE id=$10`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.CertificationID,
		user.BirthDate,
		user.Address,
		user.City,
		user.PostalCode,
		user.PhotoURL,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) UpdateCoordinates(ctx context.Context, id string, coords domain.Coordinates) error {
	const query = `
        UPDATE users SET latitude=$1, longitude=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, coords.Latitude, coords.Longitude, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePhotoURL(ctx context.Context, id, photoURL string) error {
	const query = `
        UPDATE users SET photo_url=$1, updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, photoURL, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdateStats(ctx context.Context, id string, stats domain.RescuerStats) error {
	const query = `
        UPDATE users SET missions_completed=$1, people_helped=$2, total_rescue_minutes=$3,
            last_mission_at=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		stats.MissionsCompleted,
		stats.PeopleHelped,
		stats.TotalRescueMinutes,
		stats.LastMissionAt,
		id,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) MarkEmailVerified(ctx context.Context, id string) error {
	const query = `
        UPDATE users SET email_verified=TRUE, updated_at=NOW()
        WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *userRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE users SET last_login_at=$1
        WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, at, id)
	return err
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		user domain.User
		lat  *float64
		lon  *float64
	)
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CertificationID,
		&user.BirthDate,
		&user.Address,
		&user.City,
		&user.PostalCode,
		&lat,
		&lon,
		&user.PhotoURL,
		&user.DocumentKey,
		&user.DocumentName,
		&user.EmailVerified,
		&user.Stats.MissionsCompleted,
		&user.Stats.PeopleHelped,
		&user.Stats.TotalRescueMinutes,
		&user.Stats.LastMissionAt,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastLoginAt,
	); err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		user.Coordinates = &domain.Coordinates{Latitude: *lat, Longitude: *lon}
	}
	return &user, nil
}

func coordsColumns(coords *domain.Coordinates) (*float64, *float64) {
	if coords == nil {
		return nil, nil
	}
	return &coords.Latitude, &coords.Longitude
}
