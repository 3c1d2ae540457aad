package codes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "musicglass:room:"

// Both scripts act only while the key still holds our owner value, so an
// instance never touches a claim that expired and was taken by another.
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// RedisStore claims codes across every instance sharing one Redis.
// Claims expire after ttl so a crashed instance does not leak its codes;
// KeepAlive extends the claims of rooms that are still live.
type RedisStore struct {
	client *redis.Client
	owner  string
	ttl    time.Duration

	mu   sync.Mutex
	held map[domain.RoomCode]struct{}
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Owner is written as the claim value, usually the instance id.
	Owner string
	TTL   time.Duration
}

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	log.Info().Str("module", "storage.codes").Str("addr", cfg.Addr).Msg("connected to redis")

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	owner := cfg.Owner
	if owner == "" {
		owner = uuid.NewString()
	}
	return &RedisStore{
		client: client,
		owner:  owner,
		ttl:    ttl,
		held:   make(map[domain.RoomCode]struct{}),
	}, nil
}

func (s *RedisStore) Claim(ctx context.Context, code domain.RoomCode) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+string(code), s.owner, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", code, err)
	}
	if ok {
		s.mu.Lock()
		s.held[code] = struct{}{}
		s.mu.Unlock()
	}
	return ok, nil
}

// Release deletes the claim if this instance still owns it.
func (s *RedisStore) Release(ctx context.Context, code domain.RoomCode) error {
	s.mu.Lock()
	delete(s.held, code)
	s.mu.Unlock()

	if err := releaseScript.Run(ctx, s.client, []string{keyPrefix + string(code)}, s.owner).Err(); err != nil {
		return fmt.Errorf("release %s: %w", code, err)
	}
	return nil
}

// Refresh pushes the expiry of every held claim a full ttl ahead. Claims
// found lost are forgotten and logged.
func (s *RedisStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	codes := make([]domain.RoomCode, 0, len(s.held))
	for code := range s.held {
		codes = append(codes, code)
	}
	s.mu.Unlock()

	for _, code := range codes {
		n, err := refreshScript.Run(ctx, s.client, []string{keyPrefix + string(code)}, s.owner, s.ttl.Milliseconds()).Int()
		if err != nil {
			return fmt.Errorf("refresh %s: %w", code, err)
		}
		if n == 0 {
			s.mu.Lock()
			delete(s.held, code)
			s.mu.Unlock()
			log.Error().Str("module", "storage.codes").Str("room", string(code)).Msg("room code claim lost")
		}
	}
	return nil
}

// KeepAlive refreshes the held claims three times per ttl until ctx ends.
func (s *RedisStore) KeepAlive(ctx context.Context) {
	ticker := time.NewTicker(s.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Str("module", "storage.codes").Msg("refresh room code claims")
			}
		}
	}
}

func (s *RedisStore) Close() error { return s.client.Close() }
