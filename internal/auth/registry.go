package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

// UsersKey is the KV key holding the local account registry.
const UsersKey = "oceaneye-users"

type storedUser struct {
	domain.User
	PasswordHash string `json:"password_hash"`
}

// Registry is the offline account list kept in the KV store. Passwords are
// stored as bcrypt hashes.
type Registry struct {
	kv   domain.KV
	cost int
	mu   sync.Mutex
}

// NewRegistry creates a registry over kv. A cost of zero uses bcrypt's
// default.
func NewRegistry(kv domain.KV, cost int) *Registry {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Registry{kv: kv, cost: cost}
}

// Register adds an account. An empty u.ID is replaced by a new id. Email
// matching is case-insensitive; phone matching is exact.
func (r *Registry) Register(ctx context.Context, u domain.User, password string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if u.Email != "" && findByEmail(users, u.Email) != nil {
		return domain.User{}, reject(ErrAccountExists, "An account with this email already exists")
	}
	if u.Phone != "" && findByPhone(users, u.Phone) != nil {
		return domain.User{}, reject(ErrAccountExists, "An account with this phone number already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	users = append(users, storedUser{User: u, PasswordHash: string(hash)})
	if err := r.save(ctx, users); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Authenticate checks identifier and password. An identifier containing "@"
// is an email; anything else is tried as a phone number, then as an email.
func (r *Registry) Authenticate(ctx context.Context, identifier, password string) (domain.User, error) {
	r.mu.Lock()
	users, err := r.load(ctx)
	r.mu.Unlock()
	if err != nil {
		return domain.User{}, err
	}

	var found *storedUser
	if strings.Contains(identifier, "@") {
		found = findByEmail(users, identifier)
	} else {
		found = findByPhone(users, identifier)
		if found == nil {
			found = findByEmail(users, identifier)
		}
	}
	if found == nil {
		return domain.User{}, reject(ErrAccountNotFound, "Account not found. Please sign up.")
	}
	if bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)) != nil {
		return domain.User{}, reject(ErrInvalidCredentials, "Invalid credentials")
	}
	return found.User, nil
}

// HasEmail reports whether an account with email exists.
func (r *Registry) HasEmail(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	return findByEmail(users, email) != nil, nil
}

// Users returns every registered account without password hashes.
func (r *Registry) Users(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, len(users))
	for i, u := range users {
		out[i] = u.User
	}
	return out, nil
}

// load reads the registry. A malformed value reads as empty.
func (r *Registry) load(ctx context.Context) ([]storedUser, error) {
	raw, ok, err := r.kv.Get(ctx, UsersKey)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var users []storedUser
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, nil
	}
	return users, nil
}

func (r *Registry) save(ctx context.Context, users []storedUser) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := r.kv.Set(ctx, UsersKey, string(data)); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}

func findByEmail(users []storedUser, email string) *storedUser {
	if email == "" {
		return nil
	}
	for i := range users {
		if users[i].Email != "" && strings.EqualFold(users[i].Email, email) {
			return &users[i]
		}
	}
	return nil
}

func findByPhone(users []storedUser, phone string) *storedUser {
	if phone == "" {
		return nil
	}
	for i := range users {
		if users[i].Phone == phone {
			return &users[i]
		}
	}
	return nil
}
