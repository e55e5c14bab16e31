package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/redis"
)

// CoachLocker serializes schedule mutations per coach so that the
// snapshot a decision reads cannot change before its write lands.
type CoachLocker interface {
	// Lock blocks until the coach's lock is held or ctx ends.
	Lock(ctx context.Context, coachID string) (unlock func(), err error)
}

// lockWait upper bound on waiting for a busy coach.
const lockWait = 5 * time.Second

// NewCoachLocker returns a Redis-backed locker when rdb is set, so that
// several server instances exclude each other, and an in-process locker
// otherwise.
func NewCoachLocker(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) CoachLocker {
	local := newLocalCoachLocker()
	if rdb == nil {
		return local
	}
	return &redisCoachLocker{rdb: rdb, ttl: ttl, local: local, logger: logger}
}

// ── Redis ──

type redisCoachLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	local  *localCoachLocker
	logger *zap.Logger
}

func (l *redisCoachLocker) Lock(ctx context.Context, coachID string) (func(), error) {
	// the local lock keeps goroutines of this instance from hammering Redis
	unlockLocal, err := l.local.Lock(ctx, coachID)
	if err != nil {
		return nil, err
	}

	wctx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()
	release, err := l.rdb.AcquireLock(wctx, "coach:"+coachID, l.ttl)
	if err != nil {
		unlockLocal()
		if errors.Is(err, redis.ErrLockNotAcquired) {
			return nil, ErrBusy
		}
		l.logger.Error("acquire coach lock", zap.String("coach_id", coachID), zap.Error(err))
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			release()
			unlockLocal()
		})
	}, nil
}

// ── in-process ──

type localCoachLocker struct {
	mu    sync.Mutex
	locks map[string]*coachMutex
}

type coachMutex struct {
	ch   chan struct{} // buffered(1): holding the token means holding the lock
	refs int
}

// newLocalCoachLocker keyed mutex scoped to this process.
func newLocalCoachLocker() *localCoachLocker {
	return &localCoachLocker{locks: make(map[string]*coachMutex)}
}

func (l *localCoachLocker) Lock(ctx context.Context, coachID string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[coachID]
	if !ok {
		m = &coachMutex{ch: make(chan struct{}, 1)}
		l.locks[coachID] = m
	}
	m.refs++
	l.mu.Unlock()

	wait := time.NewTimer(lockWait)
	defer wait.Stop()

	select {
	case m.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(coachID, m)
		return nil, ctx.Err()
	case <-wait.C:
		l.drop(coachID, m)
		return nil, ErrBusy
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-m.ch
			l.drop(coachID, m)
		})
	}, nil
}

// drop forgets the mutex once nobody holds or waits for it.
func (l *localCoachLocker) drop(coachID string, m *coachMutex) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m.refs--
	if m.refs == 0 {
		delete(l.locks, coachID)
	}
}

// lockCoaches takes the locks of several coaches in a stable order.
func lockCoaches(ctx context.Context, locker CoachLocker, coachIDs []string) (func(), error) {
	ids := uniqueSorted(coachIDs)
	unlocks := make([]func(), 0, len(ids))
	unlockAll := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, id := range ids {
		unlock, err := locker.Lock(ctx, id)
		if err != nil {
			unlockAll()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return unlockAll, nil
}
