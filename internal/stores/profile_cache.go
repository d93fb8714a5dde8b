package stores

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goGuard/session"
)

var (
	ErrCacheMiss    = errors.New("cached copy not found")
	ErrCacheBackend = errors.New("profile cache backend unavailable")
	ErrCacheCorrupt = errors.New("cached copy corrupt")
)

// Liveness is the last observed session-status result.
type Liveness struct {
	ActiveSessions int
	ObservedAt     time.Time
}

// ProfileCache stores one client's cached copies.
type ProfileCache interface {
	SaveProfile(ctx context.Context, p session.CachedProfile) error
	LoadProfile(ctx context.Context) (session.CachedProfile, error)
	SaveLiveness(ctx context.Context, l Liveness) error
	LoadLiveness(ctx context.Context) (Liveness, error)
	Purge(ctx context.Context) error
}

// RedisProfileCache keeps cached copies in Redis.
type RedisProfileCache struct {
	redis    redis.UniversalClient
	prefix   string
	clientID string
	ttl      time.Duration
}

// NewRedisProfileCache builds a cache for clientID. An empty prefix defaults to "gg".
func NewRedisProfileCache(redisClient redis.UniversalClient, prefix, clientID string, ttl time.Duration) *RedisProfileCache {
	if prefix == "" {
		prefix = "gg"
	}
	return &RedisProfileCache{
		redis:    redisClient,
		prefix:   prefix,
		clientID: clientID,
		ttl:      ttl,
	}
}

func (s *RedisProfileCache) profileKey() string {
	return s.prefix + ":p:" + s.clientID
}

func (s *RedisProfileCache) livenessKey() string {
	return s.prefix + ":l:" + s.clientID
}

func (s *RedisProfileCache) SaveProfile(ctx context.Context, p session.CachedProfile) error {
	encoded, err := session.EncodeProfile(p)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.profileKey(), encoded, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheBackend, err)
	}
	return nil
}

func (s *RedisProfileCache) LoadProfile(ctx context.Context) (session.CachedProfile, error) {
	data, err := s.redis.Get(ctx, s.profileKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.CachedProfile{}, ErrCacheMiss
		}
		return session.CachedProfile{}, fmt.Errorf("%w: %v", ErrCacheBackend, err)
	}

	p, err := session.DecodeProfile(data)
	if err != nil {
		_, _ = s.redis.Del(ctx, s.profileKey()).Result()
		return session.CachedProfile{}, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	return p, nil
}

func (s *RedisProfileCache) SaveLiveness(ctx context.Context, l Liveness) error {
	if err := s.redis.Set(ctx, s.livenessKey(), encodeLiveness(l), s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheBackend, err)
	}
	return nil
}

func (s *RedisProfileCache) LoadLiveness(ctx context.Context) (Liveness, error) {
	raw, err := s.redis.Get(ctx, s.livenessKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Liveness{}, ErrCacheMiss
		}
		return Liveness{}, fmt.Errorf("%w: %v", ErrCacheBackend, err)
	}
	return decodeLiveness(raw)
}

// Purge removes every cached copy of this client. Purging an empty cache is not an error.
func (s *RedisProfileCache) Purge(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.profileKey(), s.livenessKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheBackend, err)
	}
	return nil
}

// "count|unixnano"
func encodeLiveness(l Liveness) string {
	return strconv.Itoa(l.ActiveSessions) + "|" + strconv.FormatInt(l.ObservedAt.UnixNano(), 10)
}

func decodeLiveness(raw string) (Liveness, error) {
	count, at, ok := strings.Cut(raw, "|")
	if !ok {
		return Liveness{}, ErrCacheCorrupt
	}
	n, err := strconv.Atoi(count)
	if err != nil || n < 0 {
		return Liveness{}, ErrCacheCorrupt
	}
	nanos, err := strconv.ParseInt(at, 10, 64)
	if err != nil {
		return Liveness{}, ErrCacheCorrupt
	}
	return Liveness{ActiveSessions: n, ObservedAt: time.Unix(0, nanos).UTC()}, nil
}

// MemoryProfileCache keeps cached copies in process memory.
type MemoryProfileCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	profile  *session.CachedProfile
	profExp  time.Time
	liveness *Liveness
	liveExp  time.Time
}

// NewMemoryProfileCache returns an empty in-memory cache. ttl <= 0 never expires.
func NewMemoryProfileCache(ttl time.Duration) *MemoryProfileCache {
	return &MemoryProfileCache{ttl: ttl, now: time.Now}
}

func (m *MemoryProfileCache) expiry() time.Time {
	if m.ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(m.ttl)
}

func (m *MemoryProfileCache) expired(at time.Time) bool {
	return !at.IsZero() && !m.now().Before(at)
}

func (m *MemoryProfileCache) SaveProfile(_ context.Context, p session.CachedProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := p
	m.profile = &cp
	m.profExp = m.expiry()
	return nil
}

func (m *MemoryProfileCache) LoadProfile(context.Context) (session.CachedProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil || m.expired(m.profExp) {
		m.profile = nil
		return session.CachedProfile{}, ErrCacheMiss
	}
	return *m.profile, nil
}

func (m *MemoryProfileCache) SaveLiveness(_ context.Context, l Liveness) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := l
	m.liveness = &cp
	m.liveExp = m.expiry()
	return nil
}

func (m *MemoryProfileCache) LoadLiveness(context.Context) (Liveness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.liveness == nil || m.expired(m.liveExp) {
		m.liveness = nil
		return Liveness{}, ErrCacheMiss
	}
	return *m.liveness, nil
}

func (m *MemoryProfileCache) Purge(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = nil
	m.liveness = nil
	return nil
}
