package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/harborline/stockgate/internal/domain"
)

// storedSession is the Redis value shape. The access token is persisted
// here even though domain.Session hides it from JSON responses.
type storedSession struct {
	ID          string     `json:"id"`
	Shop        string     `json:"shop"`
	AccessToken string     `json:"access_token"`
	Scope       string     `json:"scope"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SessionStore is a Redis-backed domain.SessionStore, one key per shop.
type SessionStore struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*SessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &SessionStore{client: client}, nil
}

func (s *SessionStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis.SessionStore.Close: %w", err)
	}
	return nil
}

// SessionKey builds the Redis key for a shop's offline session.
func SessionKey(shop string) string {
	return "session:offline:" + shop
}

func (s *SessionStore) GetByShop(ctx context.Context, shop string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, SessionKey(shop)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis.SessionStore.GetByShop: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("redis.SessionStore.GetByShop: decode: %w", err)
	}

	return stored.toDomain()
}

func (s *SessionStore) Put(ctx context.Context, sess *domain.Session) error {
	raw, err := json.Marshal(storedSession{
		ID:          sess.ID.String(),
		Shop:        sess.Shop,
		AccessToken: sess.AccessToken,
		Scope:       sess.Scope,
		ExpiresAt:   sess.ExpiresAt,
		CreatedAt:   sess.CreatedAt,
		UpdatedAt:   sess.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("redis.SessionStore.Put: encode: %w", err)
	}

	// Expiring sessions are evicted by Redis itself; offline tokens persist.
	var ttl time.Duration
	if sess.ExpiresAt != nil {
		ttl = time.Until(*sess.ExpiresAt)
		if ttl <= 0 {
			return domain.ErrSessionExpired
		}
	}

	if err := s.client.Set(ctx, SessionKey(sess.Shop), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis.SessionStore.Put: %w", err)
	}

	return nil
}

func (s *SessionStore) Delete(ctx context.Context, shop string) error {
	n, err := s.client.Del(ctx, SessionKey(shop)).Result()
	if err != nil {
		return fmt.Errorf("redis.SessionStore.Delete: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

func (st *storedSession) toDomain() (*domain.Session, error) {
	id, err := uuid.Parse(st.ID)
	if err != nil {
		return nil, fmt.Errorf("redis.storedSession: id: %w", err)
	}

	return &domain.Session{
		ID:          id,
		Shop:        st.Shop,
		AccessToken: st.AccessToken,
		Scope:       st.Scope,
		ExpiresAt:   st.ExpiresAt,
		CreatedAt:   st.CreatedAt,
		UpdatedAt:   st.UpdatedAt,
	}, nil
}
