package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"QH_quranhabits/internal/model"
	"QH_quranhabits/internal/quran"
	"QH_quranhabits/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

var errChapterNotFound = quran.ErrChapterNotFound

type ContentClient interface {
	Chapters(ctx context.Context) ([]model.Chapter, error)
	Verses(ctx context.Context, chapterID, page, perPage int) (model.VersePage, error)
}

type quranRoutes struct {
	content ContentClient
}

func NewQuranRoutes(handler *gin.RouterGroup, content ContentClient) {
	r := &quranRoutes{content: content}
	h := handler.Group("/quran")
	{
		h.GET("/chapters", r.Chapters)
		h.GET("/chapters/:id/verses", r.Verses)
	}
}

// Chapters degrades to an empty list when the content API is unavailable.
func (r *quranRoutes) Chapters(c *gin.Context) {
	chapters, err := r.content.Chapters(c.Request.Context())
	if err != nil {
		logger.Logger().Warn("failed to fetch chapters", zap.Error(err))
		chapters = []model.Chapter{}
	}

	c.JSON(http.StatusOK, gin.H{"chapters": chapters})
}

func (r *quranRoutes) Verses(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chapter id"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(quran.DefaultPerPage)))

	versePage, err := r.content.Verses(c.Request.Context(), id, page, perPage)
	if err != nil {
		if errors.Is(err, errChapterNotFound) {
			writeError(c, "chapter not found", err)
			return
		}
		logger.Logger().Warn("failed to fetch verses", zap.Int("chapter_id", id), zap.Error(err))
		versePage = model.VersePage{Verses: []model.Verse{}}
	}

	c.JSON(http.StatusOK, versePage)
}
