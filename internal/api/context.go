package api

import (
	"errors"
	"net/http"

	"QH_quranhabits/internal/middleware"
	"QH_quranhabits/internal/model"
	"QH_quranhabits/internal/service"
	"QH_quranhabits/internal/store"
	"QH_quranhabits/internal/tracker"
	"QH_quranhabits/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

func currentStore(c *gin.Context) (*store.Store, bool) {
	value, exists := c.Get(middleware.StoreKey)
	if !exists {
		logger.Logger().Error("store not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	st, ok := value.(*store.Store)
	if !ok {
		logger.Logger().Error("invalid type assertion for store")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}
	return st, true
}

func currentUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get(middleware.UserKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return nil, false
	}

	user, ok := value.(*model.User)
	if !ok {
		logger.Logger().Error("invalid type assertion for user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}
	return user, true
}

// writeError maps service and tracker errors to status codes. Anything not
// caused by the caller is logged and reported as an internal error.
func writeError(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrChallengeNotFound), errors.Is(err, errChapterNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidSession):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, tracker.ErrChallengeCompleted),
		errors.Is(err, tracker.ErrNotAdvanceable),
		errors.Is(err, tracker.ErrDayNotComplete):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidResetToken), service.IsValidationError(err):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.Logger().Error(msg, zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	JoinedAt string `json:"joined_at"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:       u.ID.String(),
		Email:    u.Email,
		Name:     u.Name,
		JoinedAt: u.JoinedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}
