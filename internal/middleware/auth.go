package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "tillpoint/internal/errors"
	"tillpoint/internal/logger"
	"tillpoint/internal/models"
	"tillpoint/internal/store"
	"tillpoint/internal/token"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey     = "userID"
	BusinessIDKey = "businessID"
	RoleKey       = "role"
	UserKey       = "user"
)

// UserLoader reads a user by id. store.Store satisfies it.
type UserLoader interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// AuthMiddleware verifies the bearer token and re-reads its user, so a token
// outlives neither a deactivation nor a revoked approval.
func AuthMiddleware(tokens *token.Service, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		claims := tokens.Verify(parts[1])
		if claims == nil {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired token"))
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired token"))
				return
			}
			logger.Get().Errorw("Failed to load token user", "user_id", claims.UserID, "error", err)
			abortWithError(c, apperrors.ErrInternalServer)
			return
		}
		if !user.Active || user.AwaitingApproval() {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Account is not allowed to sign in"))
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(RoleKey, user.Role)
		if user.BusinessID != nil {
			c.Set(BusinessIDKey, *user.BusinessID)
		}
		c.Set(UserKey, user)
		c.Next()
	}
}

// abortWithError stops the chain with the standard error body.
func abortWithError(c *gin.Context, err *apperrors.AppError) {
	status := err.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    err.Code,
			"message": err.Message,
		},
	})
}
