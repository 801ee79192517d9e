package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "monedero/internal/errors"
	"monedero/internal/logger"
	"monedero/internal/models"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("userID")
	if !exists {
		return "", apperrors.ErrUnauthorized
	}
	return userID.(string), nil
}

// getScope resolves the context the request operates in. Without a group_id
// query parameter the scope is the user's personal context; with one, the
// named group's context. Membership is enforced by the services.
func getScope(c *gin.Context) (models.Scope, error) {
	userID, err := getUserID(c)
	if err != nil {
		return models.Scope{}, err
	}
	if groupID := c.Query("group_id"); groupID != "" {
		return models.GroupScope(userID, groupID), nil
	}
	return models.PersonalScope(userID), nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}
