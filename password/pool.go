package password

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of concurrent hash and verify operations.
//
// Callers block until a slot frees up or ctx is done. NeedsUpgrade only
// parses the encoded hash and bypasses the pool.
type Pool struct {
	hasher  Hasher
	slots   *semaphore.Weighted
	observe func(time.Duration)
}

// NewPool wraps h with at most size concurrent operations. A size below one
// is treated as one.
func NewPool(h Hasher, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{hasher: h, slots: semaphore.NewWeighted(int64(size))}
}

// WithObserver registers fn to receive the duration of every hash or verify
// call, excluding time spent waiting for a slot.
func (p *Pool) WithObserver(fn func(time.Duration)) *Pool {
	p.observe = fn
	return p
}

// Hash hashes password once a slot is available.
func (p *Pool) Hash(ctx context.Context, password string) (string, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.slots.Release(1)

	start := time.Now()
	hash, err := p.hasher.Hash(password)
	p.record(start)
	return hash, err
}

// Verify checks password against encodedHash once a slot is available.
func (p *Pool) Verify(ctx context.Context, password, encodedHash string) (bool, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer p.slots.Release(1)

	start := time.Now()
	ok, err := p.hasher.Verify(password, encodedHash)
	p.record(start)
	return ok, err
}

// NeedsUpgrade delegates to the wrapped hasher.
func (p *Pool) NeedsUpgrade(encodedHash string) (bool, error) {
	return p.hasher.NeedsUpgrade(encodedHash)
}

func (p *Pool) record(start time.Time) {
	if p.observe != nil {
		p.observe(time.Since(start))
	}
}
