package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kunwarabhi7/car-rental/internal/domain"
)

const userColumns = `id, username, email, password_hash, google_id, profile_pic, refresh_token_hash, role, created_at, updated_at`

type PostgresRepository struct {
	Pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := r.Pool.QueryRow(
		ctx,
		`INSERT INTO users (username, email, password_hash, google_id, profile_pic, refresh_token_hash, role)
         VALUES ($1, lower($2), $3, $4, COALESCE($5, ''), $6, COALESCE(NULLIF($7, ''), 'user'))
         RETURNING `+userColumns,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.GoogleID,
		user.ProfilePic,
		user.RefreshTokenHash,
		user.Role,
	)

	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.Pool.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	return handleScan(row)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.Pool.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE email = lower($1)`,
		email,
	)
	return handleScan(row)
}

func (r *PostgresRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	row := r.Pool.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE email = lower($1) OR username = $1`,
		strings.TrimSpace(identifier),
	)
	return handleScan(row)
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.Pool.QueryRow(
		ctx,
		`UPDATE users
         SET username    = COALESCE($2, username),
             email       = COALESCE(lower($3), email),
             profile_pic = COALESCE($4, profile_pic),
             google_id   = COALESCE($5, google_id),
             updated_at  = now()
         WHERE id = $1
         RETURNING `+userColumns,
		id,
		patch.Username,
		patch.Email,
		patch.ProfilePic,
		patch.GoogleID,
	)

	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepository) SetRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := r.Pool.Exec(
		ctx,
		`UPDATE users SET refresh_token_hash = $2, updated_at = now() WHERE id = $1`,
		id, hash,
	)
	if err != nil {
		return fmt.Errorf("set refresh token hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.GoogleID,
		&u.ProfilePic,
		&u.RefreshTokenHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func handleScan(row pgx.Row) (*domain.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// validID guards the uuid-typed id column: passing a malformed id to
// Postgres raises 22P02 instead of finding nothing, so ids that cannot
// be uuids are treated as absent rows before the query runs.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (the unique indexes on username and email are the race-safe backstop
// behind the friendlier pre-insert checks in the handlers).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
