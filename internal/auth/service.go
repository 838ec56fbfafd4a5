// Package auth signs users up and in. The remote API is tried first when it
// is reachable; otherwise a local registry in the KV store answers.
package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/oceaneye-service/internal/adapter/remote"
	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/observability"
)

// Remote is the subset of the remote API used for accounts.
type Remote interface {
	Ping(ctx context.Context) error
	Signup(ctx context.Context, req remote.SignupRequest) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.User, error)
}

// SessionWriter persists the signed-in user.
type SessionWriter interface {
	SetUser(ctx context.Context, u domain.User) error
}

// Path names which backend answered an auth request.
type Path string

const (
	PathRemote Path = "remote"
	PathLocal  Path = "local"
)

// Result is a successful signup or login.
type Result struct {
	User      domain.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Path      Path        `json:"path"`
}

// SignupInput is a signup form.
type SignupInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Phone    string      `json:"phone"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// Validate checks the required fields.
func (in SignupInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return &domain.ValidationError{Field: "name", Message: "name is required"}
	case in.Email == "" && in.Phone == "":
		return &domain.ValidationError{Field: "email", Message: "email or phone is required"}
	case in.Password == "":
		return &domain.ValidationError{Field: "password", Message: "password is required"}
	case !domain.IsValidRole(string(in.Role)):
		return &domain.ValidationError{Field: "role", Message: "unknown role"}
	}
	return nil
}

// Timeouts bound the remote calls.
type Timeouts struct {
	Health  time.Duration
	Request time.Duration
}

// Service coordinates the remote API, the local registry, the session and
// token issuance.
type Service struct {
	remote   Remote
	registry *Registry
	session  SessionWriter
	tokens   *TokenIssuer
	timeouts Timeouts
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService creates an auth service. rem may be nil for local-only auth.
func NewService(rem Remote, registry *Registry, session SessionWriter, tokens *TokenIssuer, timeouts Timeouts, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		remote:   rem,
		registry: registry,
		session:  session,
		tokens:   tokens,
		timeouts: timeouts,
		logger:   logger,
		metrics:  metrics,
	}
}

// Tokens returns the issuer used to sign session tokens.
func (s *Service) Tokens() *TokenIssuer { return s.tokens }

// Signup registers an account. The remote API handles it when reachable and
// an email is present; a remote rejection is final, a transport failure
// falls back to the local registry. A remote account is also cached locally
// for offline login.
func (s *Service) Signup(ctx context.Context, in SignupInput) (Result, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	if in.Email != "" && s.reachable(ctx) {
		reqCtx, cancel := context.WithTimeout(ctx, s.timeouts.Request)
		user, err := s.remote.Signup(reqCtx, remote.SignupRequest{
			Name: in.Name, Email: in.Email, Phone: in.Phone, Password: in.Password, Role: in.Role,
		})
		cancel()
		switch {
		case err == nil:
			if user.Phone == "" {
				user.Phone = in.Phone
			}
			if _, cacheErr := s.registry.Register(ctx, user, in.Password); cacheErr != nil {
				s.logger.Debug("local account cache skipped", "error", cacheErr)
			}
			return s.complete(ctx, "signup", PathRemote, user)
		case domain.IsAPIError(err):
			s.record("signup", PathRemote, false)
			return Result{}, err
		default:
			s.logger.Warn("remote signup failed, using local registry", "error", err)
		}
	}

	user, err := s.registry.Register(ctx, domain.User{
		Name: in.Name, Email: in.Email, Phone: in.Phone, Role: in.Role,
	}, in.Password)
	if err != nil {
		s.record("signup", PathLocal, false)
		return Result{}, err
	}
	return s.complete(ctx, "signup", PathLocal, user)
}

// Login authenticates identifier, an email or phone number. Only email
// identifiers are sent to the remote API.
func (s *Service) Login(ctx context.Context, identifier, password string) (Result, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return Result{}, &domain.ValidationError{Field: "identifier", Message: "identifier and password are required"}
	}

	if strings.Contains(identifier, "@") && s.reachable(ctx) {
		reqCtx, cancel := context.WithTimeout(ctx, s.timeouts.Request)
		user, err := s.remote.Login(reqCtx, identifier, password)
		cancel()
		switch {
		case err == nil:
			s.cacheRemoteLogin(ctx, user, password)
			return s.complete(ctx, "login", PathRemote, user)
		case domain.IsAPIError(err):
			s.record("login", PathRemote, false)
			return Result{}, err
		default:
			s.logger.Warn("remote login failed, using local registry", "error", err)
		}
	}

	user, err := s.registry.Authenticate(ctx, identifier, password)
	if err != nil {
		s.record("login", PathLocal, false)
		return Result{}, err
	}
	return s.complete(ctx, "login", PathLocal, user)
}

func (s *Service) cacheRemoteLogin(ctx context.Context, user domain.User, password string) {
	exists, err := s.registry.HasEmail(ctx, user.Email)
	if err != nil || exists {
		return
	}
	if _, err := s.registry.Register(ctx, user, password); err != nil {
		s.logger.Debug("local account cache skipped", "error", err)
	}
}

func (s *Service) reachable(ctx context.Context) bool {
	if s.remote == nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, s.timeouts.Health)
	defer cancel()
	if err := s.remote.Ping(pingCtx); err != nil {
		s.logger.Debug("remote api unreachable", "error", err)
		return false
	}
	return true
}

func (s *Service) complete(ctx context.Context, op string, path Path, user domain.User) (Result, error) {
	if err := s.session.SetUser(ctx, user); err != nil {
		s.record(op, path, false)
		return Result{}, err
	}
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		s.record(op, path, false)
		return Result{}, err
	}
	s.record(op, path, true)
	s.logger.Info("user authenticated", "op", op, "path", path, "user_id", user.ID, "role", user.Role)
	return Result{User: user, Token: token, ExpiresAt: exp, Path: path}, nil
}

func (s *Service) record(op string, path Path, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	s.metrics.AuthAttempts.WithLabelValues(op, string(path), outcome).Inc()
}
