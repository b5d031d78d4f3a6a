package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tillpoint/internal/errors"
	"tillpoint/internal/models"
	"tillpoint/internal/services"
)

// SessionHandler exposes the terminal's session manager over HTTP.
type SessionHandler struct {
	session services.SessionServicer
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(session services.SessionServicer) *SessionHandler {
	return &SessionHandler{session: session}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required,max=255"`
	Password   string `json:"password" binding:"required,max=128"`
}

// RegisterRequest represents the registration request payload. Field rules are
// enforced by the session manager so the first failing rule is reported.
type RegisterRequest struct {
	Username     string `json:"username" binding:"max=50"`
	Password     string `json:"password" binding:"max=128"`
	BusinessName string `json:"business_name" binding:"max=255"`
	Email        string `json:"email" binding:"max=255"`
	FirstName    string `json:"first_name" binding:"max=100"`
	LastName     string `json:"last_name" binding:"max=100"`
	BusinessType string `json:"business_type" binding:"max=100"`
	Address      string `json:"address" binding:"max=255"`
	PhoneNumber  string `json:"phone_number" binding:"max=50"`
}

// SwitchRequest represents a switch-user request. Credential is a PIN when
// UsePIN is set and a password otherwise.
type SwitchRequest struct {
	UserID     uint   `json:"user_id" binding:"required"`
	Credential string `json:"credential" binding:"required,max=128"`
	UsePIN     bool   `json:"use_pin"`
}

// SessionResponse is the authenticated session. Token is only set by the
// calls that check a credential (login and switch).
type SessionResponse struct {
	Token     string           `json:"token,omitempty"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *models.Snapshot `json:"user"`
}

// RegisterResponse is returned once a tenant has been created.
type RegisterResponse struct {
	User   *models.Snapshot `json:"user"`
	Status string           `json:"status"`
}

// UsersResponse lists users.
type UsersResponse struct {
	Users []models.Snapshot `json:"users"`
}

func toSessionResponse(s *services.Session) SessionResponse {
	return SessionResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, User: s.User}
}

// toSessionStatus describes the session without its token, for calls that
// anyone who can reach the terminal may make.
func toSessionStatus(s *services.Session) SessionResponse {
	return SessionResponse{ExpiresAt: s.ExpiresAt, User: s.User}
}

// Get returns the current session
// @Summary     Current session
// @Description Return the signed-in user of this terminal. The token is not included.
// @Tags        session
// @Produce     json
// @Success     200 {object} SessionResponse "Current session"
// @Failure     401 {object} ErrorResponse "No user signed in"
// @Router      /session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	s := h.session.Current()
	if s == nil {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, toSessionStatus(s))
}

// Restore handles session restore
// @Summary     Restore the persisted session
// @Description Re-validate the token kept on this terminal and resume its session. The token is not included.
// @Tags        session
// @Produce     json
// @Success     200 {object} SessionResponse "Session restored"
// @Failure     401 {object} ErrorResponse "Nothing to restore"
// @Failure     409 {object} ErrorResponse "Another sign-in is in progress"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /session/restore [post]
func (h *SessionHandler) Restore(c *gin.Context) {
	s, err := h.session.RestoreSession(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	if s == nil {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, toSessionStatus(s))
}

// Login handles user login
// @Summary     Sign in
// @Description Authenticate with a username or email and a password
// @Tags        session
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "Login credentials"
// @Success     200 {object} SessionResponse "Signed in"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     403 {object} ErrorResponse "Account pending approval"
// @Failure     409 {object} ErrorResponse "Another sign-in is in progress"
// @Failure     429 {object} ErrorResponse "Too many attempts"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /session/login [post]
func (h *SessionHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	s, err := h.session.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(s))
}

// Register handles tenant registration
// @Summary     Register a business
// @Description Create a business, its main branch and its owner. The owner can sign in once approved.
// @Tags        session
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "Registration data"
// @Success     201 {object} RegisterResponse "Registered, pending approval"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /session/register [post]
func (h *SessionHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	snap, err := h.session.Register(c.Request.Context(), services.RegisterInput{
		Username:     req.Username,
		Password:     req.Password,
		BusinessName: req.BusinessName,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BusinessType: req.BusinessType,
		Address:      req.Address,
		PhoneNumber:  req.PhoneNumber,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, RegisterResponse{User: snap, Status: "pending_approval"})
}

// Switch handles switching the signed-in user
// @Summary     Switch user
// @Description Hand the terminal to another user of the same business using their PIN or password
// @Tags        session
// @Accept      json
// @Produce     json
// @Param       request body SwitchRequest true "Target user and credential"
// @Success     200 {object} SessionResponse "Switched"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Switch refused"
// @Router      /session/switch [post]
func (h *SessionHandler) Switch(c *gin.Context) {
	var req SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if !h.session.IsAuthenticated() {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}
	if !h.session.SwitchUser(c.Request.Context(), req.UserID, req.Credential, req.UsePIN) {
		if req.UsePIN {
			respondWithError(c, apperrors.ErrInvalidPIN)
		} else {
			respondWithError(c, apperrors.ErrInvalidCredentials)
		}
		return
	}

	s := h.session.Current()
	if s == nil {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(s))
}

// Refresh re-reads the signed-in user
// @Summary     Refresh the signed-in user
// @Description Reload the signed-in user's profile; a deactivated user is signed out. The token is not included.
// @Tags        session
// @Produce     json
// @Success     200 {object} SessionResponse "Refreshed"
// @Failure     401 {object} ErrorResponse "No user signed in"
// @Failure     409 {object} ErrorResponse "Another sign-in is in progress"
// @Router      /session/refresh [post]
func (h *SessionHandler) Refresh(c *gin.Context) {
	s, err := h.session.RefreshUser(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionStatus(s))
}

// Logout ends the terminal session
// @Summary     Sign out
// @Description End the session on this terminal
// @Tags        session
// @Success     204 "Signed out"
// @Router      /session/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	h.session.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// Users lists switch candidates
// @Summary     Switch candidates
// @Description List the active users of the signed-in user's business
// @Tags        session
// @Produce     json
// @Success     200 {object} UsersResponse "Users"
// @Failure     401 {object} ErrorResponse "No user signed in"
// @Router      /session/users [get]
func (h *SessionHandler) Users(c *gin.Context) {
	users, err := h.session.ListSwitchCandidates(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, UsersResponse{Users: users})
}

// Me returns the bearer token's user
// @Summary     Token owner
// @Description Return the user a bearer token belongs to, re-read from the store
// @Tags        user
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Snapshot "User"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /me [get]
func (h *SessionHandler) Me(c *gin.Context) {
	user, err := tokenUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Snapshot())
}
