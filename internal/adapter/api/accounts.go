package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/oceaneye-service/internal/auth"
	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/session"
)

type loginBody struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// handleSignup handles POST /api/auth/signup.
func (s *Server) handleSignup(c *gin.Context) {
	var in auth.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid signup body"})
		return
	}
	res, err := s.deps.Accounts.Signup(c.Request.Context(), in)
	if err != nil {
		respondAuthError(c, err, http.StatusConflict)
		return
	}
	respondAuth(c, res)
}

// handleLogin handles POST /api/auth/login. The identifier may be an email
// or phone number; the remote API's {email, password} body is also
// accepted.
func (s *Server) handleLogin(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid login body"})
		return
	}
	identifier := body.Identifier
	if identifier == "" {
		identifier = body.Email
	}
	res, err := s.deps.Accounts.Login(c.Request.Context(), identifier, body.Password)
	if err != nil {
		respondAuthError(c, err, http.StatusUnauthorized)
		return
	}
	respondAuth(c, res)
}

// handleLogout handles POST /api/auth/logout.
func (s *Server) handleLogout(c *gin.Context) {
	if err := s.deps.Session.ClearUser(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not clear session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func respondAuth(c *gin.Context, res auth.Result) {
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"user":       res.User,
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"path":       res.Path,
		"dashboard":  domain.DashboardPath(res.User.Role),
	})
}

// respondAuthError maps auth failures to statuses. rejected is used for a
// local rejection; remote rejections keep the remote status when it is a
// client error.
func respondAuthError(c *gin.Context, err error, rejected int) {
	var (
		verr   *domain.ValidationError
		rej    *auth.RejectionError
		apiErr *domain.APIError
	)
	switch {
	case errors.As(err, &verr):
		respondValidation(c, err)
	case errors.As(err, &rej):
		status := rejected
		if errors.Is(err, auth.ErrAccountNotFound) || errors.Is(err, auth.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"ok": false, "error": rej.Message})
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 || status > 499 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"ok": false, "error": apiErr.Message})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}

// handleSession handles GET /api/session.
func (s *Server) handleSession(c *gin.Context) {
	state := s.deps.Session.State(c.Request.Context())
	resp := gin.H{"ok": true, "session": state}
	if state.User != nil {
		resp["permissions"] = domain.Permissions(state.User.Role)
		resp["dashboard"] = domain.DashboardPath(state.User.Role)
	}
	c.JSON(http.StatusOK, resp)
}

// handleSetPreferences handles PUT /api/session/preferences.
func (s *Server) handleSetPreferences(c *gin.Context) {
	var update session.PreferencesUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid preferences body"})
		return
	}
	prefs, err := s.deps.Session.SetPreferences(c.Request.Context(), update)
	if err != nil {
		if errors.Is(err, session.ErrInvalidPreference) {
			badRequest(c, err)
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not save preferences"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "preferences": prefs})
}
