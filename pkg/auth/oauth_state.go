package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultStateTTL bounds how long a user may take on the consent screen.
const DefaultStateTTL = 10 * time.Minute

// ErrOAuthState is returned for an unknown, reused or expired OAuth state.
var ErrOAuthState = errors.New("invalid oauth state")

// OAuthState is what the start of the flow remembers for the callback.
type OAuthState struct {
	Nonce     string    `json:"nonce"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StateStore keeps OAuth states between redirect and callback. Take is
// single use.
type StateStore interface {
	Save(ctx context.Context, state string, s OAuthState) error
	Take(ctx context.Context, state string) (*OAuthState, error)
}

// MemoryStateStore is a process-local StateStore.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]OAuthState
	now    func() time.Time
}

// NewMemoryStateStore creates an empty in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[string]OAuthState),
		now:    time.Now,
	}
}

// Save stores s under state.
func (m *MemoryStateStore) Save(_ context.Context, state string, s OAuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, v := range m.states {
		if !now.Before(v.ExpiresAt) {
			delete(m.states, k)
		}
	}
	m.states[state] = s
	return nil
}

// Take removes and returns the entry for state if it has not expired.
func (m *MemoryStateStore) Take(_ context.Context, state string) (*OAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[state]
	if !ok {
		return nil, ErrOAuthState
	}
	delete(m.states, state)
	if !m.now().Before(s.ExpiresAt) {
		return nil, ErrOAuthState
	}
	return &s, nil
}

// RedisStateStore shares OAuth states across replicas.
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStateStore creates a Redis backed state store.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: "storefront:oauth_state:"}
}

// Save stores s under state with its remaining lifetime as TTL.
func (r *RedisStateStore) Save(ctx context.Context, state string, s OAuthState) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrOAuthState
	}
	if err := r.client.Set(ctx, r.prefix+state, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// Take atomically reads and deletes the entry for state.
func (r *RedisStateStore) Take(ctx context.Context, state string) (*OAuthState, error) {
	payload, err := r.client.GetDel(ctx, r.prefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrOAuthState
	}
	if err != nil {
		return nil, fmt.Errorf("take oauth state: %w", err)
	}

	var s OAuthState
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, ErrOAuthState
	}
	if !time.Now().Before(s.ExpiresAt) {
		return nil, ErrOAuthState
	}
	return &s, nil
}
