// Package session holds the device-scoped state that survives restarts: the
// reporter identity, the signed-in user and display preferences. Every field
// is persisted under its own key in the KV store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

// KV keys.
const (
	KeyUserID    = "oceaneye-user-id"
	KeyUserRole  = "oceaneye-user-role"
	KeyUserName  = "oceaneye-user-name"
	KeyUserEmail = "oceaneye-user-email"
	KeyUserPhone = "oceaneye-user-phone"
	KeyLanguage  = "oceaneye-language"
	KeyTheme     = "oceaneye-theme"
	KeyAPIBase   = "oceaneye-api-base"
)

var allKeys = []string{
	KeyUserID, KeyUserRole, KeyUserName, KeyUserEmail, KeyUserPhone,
	KeyLanguage, KeyTheme, KeyAPIBase,
}

var userKeys = []string{KeyUserID, KeyUserRole, KeyUserName, KeyUserEmail, KeyUserPhone}

// Supported preference values.
var (
	Languages = []string{"en", "hi", "ta"}
	Themes    = []string{"light", "dark", "auto"}
)

const (
	defaultLanguage = "en"
	defaultTheme    = "light"
)

var (
	// ErrClosed is returned by writes after Close.
	ErrClosed = errors.New("session closed")
	// ErrInvalidPreference marks a rejected preference update.
	ErrInvalidPreference = errors.New("invalid preference")
)

// Preferences are the display and connection settings of the device.
type Preferences struct {
	Language string `json:"language"`
	Theme    string `json:"theme"`
	APIBase  string `json:"api_base"`
}

// PreferencesUpdate changes the non-nil fields. An empty APIBase resets the
// override to the configured default.
type PreferencesUpdate struct {
	Language *string `json:"language,omitempty"`
	Theme    *string `json:"theme,omitempty"`
	APIBase  *string `json:"api_base,omitempty"`
}

// State is a read-only view of the session.
type State struct {
	ReporterID  string       `json:"reporter_id"`
	User        *domain.User `json:"user,omitempty"`
	Preferences Preferences  `json:"preferences"`
}

// Context is the session for one device. It caches every field in memory and
// writes through to the KV store.
type Context struct {
	kv             domain.KV
	defaultAPIBase string
	logger         *slog.Logger

	mu     sync.RWMutex
	fields map[string]string
	closed bool
}

// Open loads the persisted session fields.
func Open(ctx context.Context, kv domain.KV, defaultAPIBase string, logger *slog.Logger) (*Context, error) {
	c := &Context{
		kv:             kv,
		defaultAPIBase: defaultAPIBase,
		logger:         logger,
		fields:         make(map[string]string, len(allKeys)),
	}
	for _, key := range allKeys {
		v, ok, err := kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", key, err)
		}
		if ok {
			c.fields[key] = v
		}
	}
	return c, nil
}

// Close rejects further writes.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// ReporterID returns the device reporter id, generating and persisting one
// on first use. A failed write is logged and the id is still returned.
func (c *Context) ReporterID(ctx context.Context) string {
	c.mu.RLock()
	id := c.fields[KeyUserID]
	c.mu.RUnlock()
	if id != "" {
		return id
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if id := c.fields[KeyUserID]; id != "" {
		return id
	}
	id = uuid.NewString()
	c.fields[KeyUserID] = id
	if err := c.kv.Set(ctx, KeyUserID, id); err != nil {
		c.logger.Warn("persist reporter id failed", "error", err)
	}
	return id
}

// User returns the signed-in user, if any.
func (c *Context) User() (domain.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userLocked()
}

func (c *Context) userLocked() (domain.User, bool) {
	role := domain.Role(c.fields[KeyUserRole])
	if c.fields[KeyUserID] == "" || !domain.IsValidRole(string(role)) {
		return domain.User{}, false
	}
	return domain.User{
		ID:    c.fields[KeyUserID],
		Name:  c.fields[KeyUserName],
		Email: c.fields[KeyUserEmail],
		Phone: c.fields[KeyUserPhone],
		Role:  role,
	}, true
}

// SetUser persists u as the signed-in user. Its id becomes the reporter id.
func (c *Context) SetUser(ctx context.Context, u domain.User) error {
	return c.write(ctx, map[string]string{
		KeyUserID:    u.ID,
		KeyUserRole:  string(u.Role),
		KeyUserName:  u.Name,
		KeyUserEmail: u.Email,
		KeyUserPhone: u.Phone,
	})
}

// ClearUser signs the user out and forgets the reporter id.
func (c *Context) ClearUser(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	for _, key := range userKeys {
		if err := c.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear session %s: %w", key, err)
		}
		delete(c.fields, key)
	}
	return nil
}

// Preferences returns the stored preferences with defaults applied.
func (c *Context) Preferences() Preferences {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preferencesLocked()
}

func (c *Context) preferencesLocked() Preferences {
	p := Preferences{
		Language: c.fields[KeyLanguage],
		Theme:    c.fields[KeyTheme],
		APIBase:  c.fields[KeyAPIBase],
	}
	if !slices.Contains(Languages, p.Language) {
		p.Language = defaultLanguage
	}
	if !slices.Contains(Themes, p.Theme) {
		p.Theme = defaultTheme
	}
	if p.APIBase == "" {
		p.APIBase = c.defaultAPIBase
	}
	return p
}

// SetPreferences validates and applies an update.
func (c *Context) SetPreferences(ctx context.Context, u PreferencesUpdate) (Preferences, error) {
	updates := map[string]string{}
	if u.Language != nil {
		if !slices.Contains(Languages, *u.Language) {
			return Preferences{}, fmt.Errorf("%w: unsupported language %q", ErrInvalidPreference, *u.Language)
		}
		updates[KeyLanguage] = *u.Language
	}
	if u.Theme != nil {
		if !slices.Contains(Themes, *u.Theme) {
			return Preferences{}, fmt.Errorf("%w: unsupported theme %q", ErrInvalidPreference, *u.Theme)
		}
		updates[KeyTheme] = *u.Theme
	}
	if u.APIBase != nil && *u.APIBase != "" {
		parsed, err := url.Parse(*u.APIBase)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return Preferences{}, fmt.Errorf("%w: api base must be an http(s) URL", ErrInvalidPreference)
		}
		updates[KeyAPIBase] = *u.APIBase
	}

	if err := c.write(ctx, updates); err != nil {
		return Preferences{}, err
	}
	if u.APIBase != nil && *u.APIBase == "" {
		if err := c.remove(ctx, KeyAPIBase); err != nil {
			return Preferences{}, err
		}
	}
	return c.Preferences(), nil
}

// APIBase returns the remote API base URL currently in effect.
func (c *Context) APIBase() string {
	return c.Preferences().APIBase
}

// State returns a snapshot of the session.
func (c *Context) State(ctx context.Context) State {
	id := c.ReporterID(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	s := State{ReporterID: id, Preferences: c.preferencesLocked()}
	if u, ok := c.userLocked(); ok {
		s.User = &u
	}
	return s
}

func (c *Context) write(ctx context.Context, values map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	for key, v := range values {
		if err := c.kv.Set(ctx, key, v); err != nil {
			return fmt.Errorf("persist session %s: %w", key, err)
		}
		c.fields[key] = v
	}
	return nil
}

func (c *Context) remove(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear session %s: %w", key, err)
	}
	delete(c.fields, key)
	return nil
}
