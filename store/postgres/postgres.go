// Package postgres is a sessauth.UserStore backed by PostgreSQL through a
// pgx/v5 connection pool.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/MrEthical07/sessauth"
)

// poolIface is the subset of *pgxpool.Pool the store uses.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store implements sessauth.UserStore on a users table.
type Store struct {
	pool poolIface
}

// Open connects to dsn. The schema must already be migrated.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("driver", "postgres").Wrap(err)
	}
	return &Store{pool: pool}, nil
}

// New wraps an existing pool.
func New(pool poolIface) *Store {
	return &Store{pool: pool}
}

const insertUser = `INSERT INTO users (id, email, username, password_hash, full_name, birthdate, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// CreateUser inserts in. A taken email or id wraps sessauth.ErrDuplicateUser.
func (s *Store) CreateUser(ctx context.Context, in sessauth.CreateUserInput) (sessauth.UserRecord, error) {
	_, err := s.pool.Exec(ctx, insertUser,
		in.UserID, in.Email, in.Username, in.PasswordHash, in.FullName, in.Birthdate, in.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return sessauth.UserRecord{}, oops.
				Code("USER_CREATE_FAILED").
				With("constraint", pgErr.ConstraintName).
				Wrap(sessauth.ErrDuplicateUser)
		}
		return sessauth.UserRecord{}, oops.Code("USER_CREATE_FAILED").With("operation", "insert user").Wrap(err)
	}
	return sessauth.UserRecord(in), nil
}

const selectUserByEmail = `SELECT id, email, username, password_hash, full_name, birthdate, created_at
FROM users WHERE email = $1`

// GetUserByEmail loads the record registered under email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (sessauth.UserRecord, error) {
	var rec sessauth.UserRecord
	err := s.pool.QueryRow(ctx, selectUserByEmail, email).Scan(
		&rec.UserID, &rec.Email, &rec.Username, &rec.PasswordHash, &rec.FullName, &rec.Birthdate, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return sessauth.UserRecord{}, sessauth.ErrUserNotFound
	}
	if err != nil {
		return sessauth.UserRecord{}, oops.Code("USER_LOOKUP_FAILED").With("operation", "select user").Wrap(err)
	}
	return rec, nil
}

const updatePasswordHash = `UPDATE users SET password_hash = $2 WHERE id = $1`

// UpdatePasswordHash replaces the stored hash of userID.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, updatePasswordHash, userID, passwordHash)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("user_id", userID).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return sessauth.ErrUserNotFound
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
