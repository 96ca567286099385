package api

import (
	"net/http"

	"QH_quranhabits/internal/model"
	"QH_quranhabits/internal/service"

	"github.com/gin-gonic/gin"
)

type progressRoutes struct {
	ps service.ProgressServiceI
}

func NewProgressRoutes(handler *gin.RouterGroup, ps service.ProgressServiceI) {
	r := &progressRoutes{ps: ps}
	h := handler.Group("/progress")
	{
		h.GET("", r.GetProgress)
		h.PUT("/last-read", r.SetLastRead)
		h.POST("/bookmarks/toggle", r.ToggleBookmark)
		h.PUT("/theme", r.SetTheme)
	}
}

func (r *progressRoutes) GetProgress(c *gin.Context) {
	st, ok := currentStore(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, r.ps.GetProgress(c.Request.Context(), st.Progress))
}

type SetLastReadRequest struct {
	SurahID    int `json:"surah_id"`
	AyahNumber int `json:"ayah_number"`
}

func (r *progressRoutes) SetLastRead(c *gin.Context) {
	st, ok := currentStore(c)
	if !ok {
		return
	}

	var req SetLastReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	progress, err := r.ps.SetLastRead(c.Request.Context(), st.Progress, req.SurahID, req.AyahNumber)
	if err != nil {
		writeError(c, "failed to set last read position", err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (r *progressRoutes) ToggleBookmark(c *gin.Context) {
	st, ok := currentStore(c)
	if !ok {
		return
	}

	var req service.BookmarkInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	progress, added, err := r.ps.ToggleBookmark(c.Request.Context(), st.Progress, req)
	if err != nil {
		writeError(c, "failed to toggle bookmark", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookmarked": added,
		"progress":   progress,
	})
}

type SetThemeRequest struct {
	Theme model.Theme `json:"theme"`
}

func (r *progressRoutes) SetTheme(c *gin.Context) {
	st, ok := currentStore(c)
	if !ok {
		return
	}

	var req SetThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	progress, err := r.ps.SetTheme(c.Request.Context(), st.Progress, req.Theme)
	if err != nil {
		writeError(c, "failed to set theme", err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
