package main

import (
	"context"

	"github.com/samber/oops"

	"github.com/MrEthical07/sessauth"
	"github.com/MrEthical07/sessauth/store/memory"
	"github.com/MrEthical07/sessauth/store/postgres"
	"github.com/MrEthical07/sessauth/store/redisstore"
)

// userStore is a sessauth.UserStore the daemon can health-check and close.
type userStore interface {
	sessauth.UserStore
	Ping(ctx context.Context) error
	Close() error
}

// openStore connects the store selected by store.driver.
func openStore(ctx context.Context, cfg daemonConfig) (userStore, error) {
	switch cfg.StoreDriver {
	case driverMemory, "":
		return memory.New(), nil
	case driverPostgres:
		st, err := postgres.Open(ctx, cfg.StoreDSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	case driverRedis:
		st, err := redisstore.Open(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, oops.Code("CONFIG_INVALID").With("driver", cfg.StoreDriver).Errorf("unknown store driver")
	}
}
