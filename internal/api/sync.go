package api

import (
	"context"
	"net/http"

	"QH_quranhabits/internal/middleware"
	"QH_quranhabits/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SyncStatusReader interface {
	SyncStatus(ctx context.Context, userID uuid.UUID) (*model.SyncStatus, error)
}

type syncRoutes struct {
	records SyncStatusReader
}

func NewSyncRoutes(handler *gin.RouterGroup, records SyncStatusReader) {
	r := &syncRoutes{records: records}
	handler.GET("/sync", middleware.RequireUser(), r.Status)
}

// Status reports which records the signed-in user has in the remote store.
func (r *syncRoutes) Status(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	st, ok := currentStore(c)
	if !ok {
		return
	}

	status, err := r.records.SyncStatus(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, "failed to get sync status", err)
		return
	}

	out := gin.H{
		"user_id":         status.UserID,
		"device_id":       st.Session().DeviceID,
		"records":         status.Records,
		"last_updated_at": nil,
	}
	if status.LastUpdatedAt != nil {
		out["last_updated_at"] = status.LastUpdatedAt.UTC()
	}
	c.JSON(http.StatusOK, out)
}
