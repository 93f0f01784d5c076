// Package redisstore is a sessauth.UserStore on Redis. Each user is a hash
// keyed by id; a string key maps the email to that id.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/MrEthical07/sessauth"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "sessauth"

const (
	createStatusCreated   int64 = 1
	createStatusDuplicate int64 = 0
)

// createUserScript claims the email index and writes the user hash in one
// step. KEYS[1] is the email key, KEYS[2] the user key, ARGV[1] the id and
// the rest field/value pairs.
const createUserScript = `
if redis.call("EXISTS", KEYS[2]) == 1 then
  return 0
end
if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[2], unpack(ARGV, 2))
return 1
`

var createUserLua = redis.NewScript(createUserScript)

const updateHashScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], "password_hash", ARGV[1])
return 1
`

var updateHashLua = redis.NewScript(updateHashScript)

// Store implements sessauth.UserStore.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New returns a store using client. An empty prefix means DefaultPrefix.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

// Open connects to a single Redis node at addr and checks it answers.
func Open(ctx context.Context, addr, prefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").With("driver", "redis").With("addr", addr).Wrap(err)
	}
	return New(client, prefix), nil
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":email:" + email
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":user:" + userID
}

// CreateUser stores in unless its email or id is taken.
func (s *Store) CreateUser(ctx context.Context, in sessauth.CreateUserInput) (sessauth.UserRecord, error) {
	args := []any{
		in.UserID,
		"id", in.UserID,
		"email", in.Email,
		"username", in.Username,
		"password_hash", in.PasswordHash,
		"full_name", in.FullName,
		"birthdate", in.Birthdate.UTC().Format(time.DateOnly),
		"created_at", in.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	status, err := createUserLua.Run(ctx, s.redis, []string{s.emailKey(in.Email), s.userKey(in.UserID)}, args...).Int64()
	if err != nil {
		return sessauth.UserRecord{}, oops.Code("USER_CREATE_FAILED").With("operation", "create user").Wrap(err)
	}
	if status == createStatusDuplicate {
		return sessauth.UserRecord{}, oops.Code("USER_CREATE_FAILED").With("email", in.Email).Wrap(sessauth.ErrDuplicateUser)
	}
	if status != createStatusCreated {
		return sessauth.UserRecord{}, oops.Code("USER_CREATE_FAILED").Errorf("unexpected script status %d", status)
	}

	return sessauth.UserRecord(in), nil
}

// GetUserByEmail resolves the email index and loads the user hash.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (sessauth.UserRecord, error) {
	userID, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return sessauth.UserRecord{}, sessauth.ErrUserNotFound
	}
	if err != nil {
		return sessauth.UserRecord{}, oops.Code("USER_LOOKUP_FAILED").With("operation", "resolve email").Wrap(err)
	}

	fields, err := s.redis.HGetAll(ctx, s.userKey(userID)).Result()
	if err != nil {
		return sessauth.UserRecord{}, oops.Code("USER_LOOKUP_FAILED").With("operation", "load user").Wrap(err)
	}
	if len(fields) == 0 {
		return sessauth.UserRecord{}, sessauth.ErrUserNotFound
	}

	return decodeUser(fields)
}

func decodeUser(fields map[string]string) (sessauth.UserRecord, error) {
	birthdate, err := time.Parse(time.DateOnly, fields["birthdate"])
	if err != nil {
		return sessauth.UserRecord{}, oops.Code("USER_RECORD_CORRUPT").With("field", "birthdate").Wrap(err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return sessauth.UserRecord{}, oops.Code("USER_RECORD_CORRUPT").With("field", "created_at").Wrap(err)
	}

	return sessauth.UserRecord{
		UserID:       fields["id"],
		Email:        fields["email"],
		Username:     fields["username"],
		PasswordHash: fields["password_hash"],
		FullName:     fields["full_name"],
		Birthdate:    birthdate,
		CreatedAt:    createdAt,
	}, nil
}

// UpdatePasswordHash replaces the stored hash of userID.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	updated, err := updateHashLua.Run(ctx, s.redis, []string{s.userKey(userID)}, passwordHash).Int64()
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("user_id", userID).Wrap(err)
	}
	if updated == 0 {
		return fmt.Errorf("user %s: %w", userID, sessauth.ErrUserNotFound)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.redis.Close()
}
