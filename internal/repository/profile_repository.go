package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ProfileRepository defines persistence access for profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = `id, user_id, display_name, email, avatar_url, role::text, password_hash, created_at, updated_at`

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (user_id, display_name, email, avatar_url, role, password_hash)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		profile.UserID,
		profile.DisplayName,
		profile.Email,
		profile.AvatarURL,
		profile.Role.String(),
		profile.PasswordHash,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	const query = `UPDATE profiles SET role=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, role.String(), id)
}

func (r *profileRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE profiles SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, passwordHash, id)
}

func (r *profileRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return r.fetchSingle(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id=$1`, id)
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.fetchSingle(ctx, `SELECT `+profileColumns+` FROM profiles WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *profileRepository) List(ctx context.Context) ([]domain.Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY display_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Profile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *profile)
	}
	return result, rows.Err()
}

func (r *profileRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, query, arg))
}

// scanProfile reads the role as text; values outside the enumeration become RoleUnknown.
func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var (
		profile domain.Profile
		role    string
	)
	if err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.DisplayName,
		&profile.Email,
		&profile.AvatarURL,
		&role,
		&profile.PasswordHash,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	profile.Role = domain.ParseRole(role)
	return &profile, nil
}
