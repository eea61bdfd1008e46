package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/estatehub/auth-service/internal/api/http/middleware"
	"github.com/estatehub/auth-service/internal/logger"
	"github.com/estatehub/auth-service/internal/metrics"
	"github.com/estatehub/auth-service/internal/model"
	"github.com/estatehub/auth-service/internal/rate"
	"github.com/estatehub/auth-service/internal/service"
)

// AuthService defines the authentication operations exposed over HTTP.
type AuthService interface {
	Register(ctx context.Context, params service.RegisterParams) (service.Session, error)
	Login(ctx context.Context, identifier, password string) (service.Session, error)
	RefreshTokens(ctx context.Context, presentedToken string) (service.Session, error)
	Logout(ctx context.Context, presentedToken string)
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
	GetUser(ctx context.Context, userID int64) (model.User, error)
}

// Auth handles HTTP endpoints for authentication.
type Auth struct {
	service AuthService
	limiter rate.Limiter
	logger  *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(service AuthService, limiter rate.Limiter, logger *logger.Logger) *Auth {
	return &Auth{
		service: service,
		limiter: limiter,
		logger:  logger,
	}
}

type registerRequest struct {
	Username        string  `json:"username" binding:"required"`
	Email           string  `json:"email" binding:"required"`
	Password        string  `json:"password" binding:"required"`
	ConfirmPassword string  `json:"confirm_password" binding:"required"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	PhoneNumber     *string `json:"phone_number"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type userResponse struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	FirstName       *string   `json:"first_name,omitempty"`
	LastName        *string   `json:"last_name,omitempty"`
	PhoneNumber     *string   `json:"phone_number,omitempty"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

type authResponse struct {
	AccessToken  string       `json:"access_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

// Register creates a new account and returns the first session.
func (h *Auth) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: "invalid payload"})
		return
	}

	session, err := h.service.Register(c.Request.Context(), service.RegisterParams{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		PhoneNumber:     req.PhoneNumber,
	})
	if err != nil {
		metrics.Registrations.WithLabelValues("failure").Inc()
		h.handleError(c, err)
		return
	}

	metrics.Registrations.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, newAuthResponse(session))
}

// Login exchanges credentials for a session. Attempts are rate limited per
// client address.
func (h *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: "invalid payload"})
		return
	}

	allowed, retryAfter, err := h.limiter.Allow(c.Request.Context(), c.ClientIP(), time.Now())
	if err != nil {
		h.logger.Error("Auth handler: rate limiter failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "INTERNAL_ERROR", Message: "internal error"})
		return
	}
	if !allowed {
		c.Header("Retry-After", formatRetryAfter(retryAfter))
		c.JSON(http.StatusTooManyRequests, errorResponse{Code: "RATE_LIMITED", Message: "too many requests"})
		return
	}

	session, err := h.service.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		metrics.Logins.WithLabelValues("failure").Inc()
		h.handleError(c, err)
		return
	}

	metrics.Logins.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, newAuthResponse(session))
}

// Refresh rotates a refresh token and returns the new session.
func (h *Auth) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: "invalid payload"})
		return
	}

	session, err := h.service.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		metrics.Rotations.WithLabelValues("failure").Inc()
		h.handleError(c, err)
		return
	}

	metrics.Rotations.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, newAuthResponse(session))
}

// Logout revokes the presented refresh token. Without a body token it falls
// back to the Authorization header, so a header-only logout still revokes a
// resolvable token. It always returns 200: an invalid or already-revoked
// token is not an error worth reporting.
func (h *Auth) Logout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)

	presented := req.RefreshToken
	if presented == "" {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			presented = strings.TrimPrefix(header, "Bearer ")
		}
	}

	h.service.Logout(c.Request.Context(), presented)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Me returns the authenticated user's profile.
func (h *Auth) Me(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Code: "UNAUTHORIZED", Message: "authentication required"})
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

// ChangePassword replaces the caller's password after verifying the current
// one.
func (h *Auth) ChangePassword(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Code: "UNAUTHORIZED", Message: "authentication required"})
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: "invalid payload"})
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func newAuthResponse(session service.Session) authResponse {
	return authResponse{
		AccessToken:  session.AccessToken,
		ExpiresAt:    session.AccessTokenExpiresAt,
		RefreshToken: session.RefreshToken,
		User:         newUserResponse(session.User),
	}
}

func newUserResponse(user model.User) userResponse {
	return userResponse{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		PhoneNumber:     user.PhoneNumber,
		Role:            user.Role,
		IsEmailVerified: user.IsEmailVerified,
		CreatedAt:       user.CreatedAt,
	}
}

func formatRetryAfter(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.FormatInt(seconds, 10)
}
