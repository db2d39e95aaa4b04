package preferences

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"endorsement/internal/domain"
	"endorsement/internal/infra"
	"endorsement/internal/sqlinline"
)

const (
	KeyTheme = "theme"

	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Store persists small key/value user preferences. Get returns "" and no
// error when the key has never been set.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// MemoryStore keeps preferences for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// SQLStore keeps preferences in the preferences table.
type SQLStore struct {
	sql infra.SQLExecutor
}

func NewSQLStore(sql infra.SQLExecutor) *SQLStore {
	return &SQLStore{sql: sql}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectPreference, key).Scan(&value); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("preferences: get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertPreference, key, value); err != nil {
		return fmt.Errorf("preferences: set %s: %w", key, err)
	}
	return nil
}

// Theme returns the stored colour theme, light when nothing valid is stored.
func Theme(ctx context.Context, store Store) (string, error) {
	value, err := store.Get(ctx, KeyTheme)
	if err != nil {
		return "", err
	}
	if theme, ok := normalizeTheme(value); ok {
		return theme, nil
	}
	return ThemeLight, nil
}

func SetTheme(ctx context.Context, store Store, theme string) (string, error) {
	normalized, ok := normalizeTheme(theme)
	if !ok {
		return "", fmt.Errorf("preferences: theme %q: %w", theme, domain.ErrInvalidPreference)
	}
	if err := store.Set(ctx, KeyTheme, normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ToggleTheme flips between light and dark and returns the new theme.
func ToggleTheme(ctx context.Context, store Store) (string, error) {
	current, err := Theme(ctx, store)
	if err != nil {
		return "", err
	}
	next := ThemeDark
	if current == ThemeDark {
		next = ThemeLight
	}
	return SetTheme(ctx, store, next)
}

func normalizeTheme(v string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case ThemeLight:
		return ThemeLight, true
	case ThemeDark:
		return ThemeDark, true
	default:
		return "", false
	}
}
