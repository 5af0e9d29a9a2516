// internal/settings/settings.go
//
// Typed access to the module_settings key/value table.
//
/*
Context
--------
Operational knobs the admin can change from the dashboard live in the
`module_settings` table, not in env or YAML: the WhatsApp gateway token and
URL, the AI provider key and model, and the auto-reply prompt and toggle.
Keeping them in the database means rotation takes effect without a deploy.

Reads go through a short TTL cache; the webhook path hits the settings on
every inbound message, and a thirty-second-stale token is acceptable.

Notes
-----
  • Missing keys read as "".  Callers treat empty as disabled.
  • Oxford commas, two spaces after periods.
*/
package settings

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// Well-known setting keys.
const (
	KeyGatewayToken    = "wa_gateway_token"
	KeyGatewayBaseURL  = "wa_gateway_base_url"
	KeyAIKey           = "ai_api_key"
	KeyAIModel         = "ai_model"
	KeyAutoReplyPrompt = "ai_auto_reply_prompt"
	KeyAutoReplyOn     = "ai_auto_reply_enabled"
)

const cacheTTL = 30 * time.Second

// Store reads and writes module settings.
type Store struct {
	db *sqlx.DB

	mu      sync.RWMutex
	cache   map[string]string
	fetched time.Time
}

// NewStore returns a Store over db.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, cache: map[string]string{}}
}

// Get returns one setting value, "" when the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	if time.Since(s.fetched) < cacheTTL {
		v := s.cache[key]
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	if err := s.refresh(ctx); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[key], nil
}

// GetBool interprets a setting as a boolean; absent or malformed is false.
func (s *Store) GetBool(ctx context.Context, key string) (bool, error) {
	v, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	b, _ := strconv.ParseBool(v)
	return b, nil
}

// Set upserts one setting and drops the cache.
func (s *Store) Set(ctx context.Context, key, value string) error {
	const q = `
        INSERT INTO module_settings (setting_key, setting_value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (setting_key)
        DO UPDATE SET setting_value = EXCLUDED.setting_value, updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return err
	}
	s.mu.Lock()
	s.fetched = time.Time{} // force refresh on next read
	s.mu.Unlock()
	return nil
}

// All returns every setting for the admin dashboard.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.cache))
	for k, v := range s.cache {
		out[k] = v
	}
	return out, nil
}

// refresh loads the full table; it is small by construction.
func (s *Store) refresh(ctx context.Context) error {
	var rows []struct {
		Key   string `db:"setting_key"`
		Value string `db:"setting_value"`
	}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT setting_key, setting_value FROM module_settings`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	s.mu.Lock()
	s.cache = make(map[string]string, len(rows))
	for _, r := range rows {
		s.cache[r.Key] = r.Value
	}
	s.fetched = time.Now()
	s.mu.Unlock()
	return nil
}
