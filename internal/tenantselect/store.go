// Package tenantselect persists the client an admin-like caller picked in the
// tenant selector, so later assistant commands are scoped to it.
package tenantselect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound indicates the caller has no stored selection.
var ErrNotFound = errors.New("tenantselect: no tenant selected")

// Selection is the stored value for one caller.
type Selection struct {
	TenantID   string    `json:"tenantId"`
	SelectedAt time.Time `json:"selectedAt"`
}

// Store keeps selections in Redis, keyed by caller email.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates a selection store. A zero ttl keeps selections until cleared.
func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if redisClient == nil {
		panic("tenantselect: redis client required")
	}
	return &Store{redis: redisClient, ttl: ttl, now: time.Now}
}

func (s *Store) key(email string) string {
	return fmt.Sprintf("assistant:tenant_selection:%s", strings.ToLower(strings.TrimSpace(email)))
}

// Get returns the selected tenant ID or ErrNotFound.
func (s *Store) Get(ctx context.Context, email string) (string, error) {
	sel, err := s.Selection(ctx, email)
	if err != nil {
		return "", err
	}
	return sel.TenantID, nil
}

// Selection returns the full stored selection or ErrNotFound.
func (s *Store) Selection(ctx context.Context, email string) (Selection, error) {
	data, err := s.redis.Get(ctx, s.key(email)).Bytes()
	if err == redis.Nil {
		return Selection{}, ErrNotFound
	}
	if err != nil {
		return Selection{}, fmt.Errorf("tenantselect: get selection: %w", err)
	}
	var sel Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return Selection{}, fmt.Errorf("tenantselect: unmarshal selection: %w", err)
	}
	if sel.TenantID == "" {
		return Selection{}, ErrNotFound
	}
	return sel, nil
}

// Set stores tenantID as the caller's selection.
func (s *Store) Set(ctx context.Context, email, tenantID string) (Selection, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return Selection{}, errors.New("tenantselect: tenant id required")
	}
	sel := Selection{TenantID: tenantID, SelectedAt: s.now().UTC()}
	data, err := json.Marshal(sel)
	if err != nil {
		return Selection{}, fmt.Errorf("tenantselect: marshal selection: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(email), data, s.ttl).Err(); err != nil {
		return Selection{}, fmt.Errorf("tenantselect: set selection: %w", err)
	}
	return sel, nil
}

// Clear removes the caller's selection. Clearing a missing selection is not an error.
func (s *Store) Clear(ctx context.Context, email string) error {
	if err := s.redis.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("tenantselect: clear selection: %w", err)
	}
	return nil
}
