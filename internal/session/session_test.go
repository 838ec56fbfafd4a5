package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/oceaneye-service/internal/adapter/storage"
	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/session"
)

const defaultBase = "http://localhost:4000"

func open(t *testing.T, kv domain.KV) *session.Context {
	t.Helper()
	s, err := session.Open(context.Background(), kv, defaultBase, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func ptr(s string) *string { return &s }

type failingKV struct{ domain.KV }

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk unavailable")
}

func TestOpen_LoadError(t *testing.T) {
	_, err := session.Open(context.Background(), failingKV{}, defaultBase, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk unavailable")
}

func TestReporterID_GeneratedOnceAndPersisted(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()
	s := open(t, kv)

	id := s.ReporterID(ctx)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, s.ReporterID(ctx))

	stored, ok, err := kv.Get(ctx, session.KeyUserID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, stored)

	reopened := open(t, kv)
	assert.Equal(t, id, reopened.ReporterID(ctx))
}

func TestSetUserAndClear(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()
	s := open(t, kv)

	_, ok := s.User()
	assert.False(t, ok)

	u := domain.User{ID: "u-1", Name: "Meera", Email: "meera@example.com", Phone: "+91-98", Role: domain.RoleOfficial}
	require.NoError(t, s.SetUser(ctx, u))

	got, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, u, got)
	assert.Equal(t, "u-1", s.ReporterID(ctx))

	role, _, _ := kv.Get(ctx, session.KeyUserRole)
	assert.Equal(t, "official", role)

	require.NoError(t, s.ClearUser(ctx))
	_, ok = s.User()
	assert.False(t, ok)
	for _, key := range []string{session.KeyUserID, session.KeyUserRole, session.KeyUserName, session.KeyUserEmail, session.KeyUserPhone} {
		_, ok, _ := kv.Get(ctx, key)
		assert.False(t, ok, key)
	}
	assert.NotEqual(t, "u-1", s.ReporterID(ctx), "signing out forgets the reporter id")
}

func TestPreferences_Defaults(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(context.Background(), session.KeyLanguage, "fr"))
	s := open(t, kv)

	assert.Equal(t, session.Preferences{Language: "en", Theme: "light", APIBase: defaultBase}, s.Preferences())
	assert.Equal(t, defaultBase, s.APIBase())
}

func TestSetPreferences(t *testing.T) {
	ctx := context.Background()
	s := open(t, storage.NewMemory())

	p, err := s.SetPreferences(ctx, session.PreferencesUpdate{
		Language: ptr("ta"),
		Theme:    ptr("dark"),
		APIBase:  ptr("https://api.oceaneye.example"),
	})
	require.NoError(t, err)
	assert.Equal(t, session.Preferences{Language: "ta", Theme: "dark", APIBase: "https://api.oceaneye.example"}, p)
	assert.Equal(t, "https://api.oceaneye.example", s.APIBase())

	p, err = s.SetPreferences(ctx, session.PreferencesUpdate{APIBase: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, defaultBase, p.APIBase)
	assert.Equal(t, "ta", p.Language, "unset fields are untouched")
}

func TestSetPreferences_Invalid(t *testing.T) {
	ctx := context.Background()
	s := open(t, storage.NewMemory())

	tests := map[string]session.PreferencesUpdate{
		"language": {Language: ptr("de")},
		"theme":    {Theme: ptr("sepia")},
		"scheme":   {APIBase: ptr("ftp://example.com")},
		"no host":  {APIBase: ptr("http://")},
	}
	for name, u := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.SetPreferences(ctx, u)
			require.ErrorIs(t, err, session.ErrInvalidPreference)
		})
	}
	assert.Equal(t, "en", s.Preferences().Language)
}

func TestState(t *testing.T) {
	ctx := context.Background()
	s := open(t, storage.NewMemory())

	st := s.State(ctx)
	assert.NotEmpty(t, st.ReporterID)
	assert.Nil(t, st.User)

	require.NoError(t, s.SetUser(ctx, domain.User{ID: "u-2", Role: domain.RoleAnalyst}))
	st = s.State(ctx)
	require.NotNil(t, st.User)
	assert.Equal(t, domain.RoleAnalyst, st.User.Role)
	assert.Equal(t, "u-2", st.ReporterID)
}

func TestClose_RejectsWrites(t *testing.T) {
	ctx := context.Background()
	s := open(t, storage.NewMemory())
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.SetUser(ctx, domain.User{ID: "x", Role: domain.RoleCitizen}), session.ErrClosed)
	require.ErrorIs(t, s.ClearUser(ctx), session.ErrClosed)
	_, err := s.SetPreferences(ctx, session.PreferencesUpdate{Theme: ptr("dark")})
	require.ErrorIs(t, err, session.ErrClosed)
}
