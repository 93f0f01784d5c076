package prometheus

import (
	"context"

	"github.com/MrEthical07/sessauth"
)

type nopStore struct{}

func (nopStore) CreateUser(context.Context, sessauth.CreateUserInput) (sessauth.UserRecord, error) {
	return sessauth.UserRecord{}, sessauth.ErrDuplicateUser
}

func (nopStore) GetUserByEmail(context.Context, string) (sessauth.UserRecord, error) {
	return sessauth.UserRecord{}, sessauth.ErrUserNotFound
}

func (nopStore) UpdatePasswordHash(context.Context, string, string) error {
	return sessauth.ErrUserNotFound
}
