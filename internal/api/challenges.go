package api

import (
	"net/http"
	"strconv"

	"QH_quranhabits/internal/model"
	"QH_quranhabits/internal/service"
	"QH_quranhabits/internal/tracker"
	"QH_quranhabits/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type challengeRoutes struct {
	cs service.ChallengeServiceI
}

func NewChallengeRoutes(handler *gin.RouterGroup, cs service.ChallengeServiceI) {
	r := &challengeRoutes{cs: cs}
	h := handler.Group("/challenges")
	{
		h.GET("", r.List)
		h.POST("", r.Create)
		h.GET("/:id", r.Get)
		h.DELETE("/:id", r.Delete)
		h.POST("/:id/advance", r.Advance)
		h.POST("/:id/quran", r.LogQuran)
		h.POST("/:id/dhikr", r.LogDhikr)
		h.POST("/:id/habits/:index/toggle", r.ToggleHabit)
	}
}

func (r *challengeRoutes) List(c *gin.Context) {
	st, ok := currentStore(c)
	if !ok {
		return
	}

	views, err := r.cs.List(c.Request.Context(), st.Challenges, model.ChallengeKind(c.Query("type")))
	if err != nil {
		writeError(c, "failed to list challenges", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"challenges": views})
}

func (r *challengeRoutes) Get(c *gin.Context) {
	st, ok := currentStore(c)
	if !ok {
		return
	}

	view, err := r.cs.Get(c.Request.Context(), st.Challenges, c.Param("id"))
	if err != nil {
		writeError(c, "failed to get challenge", err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (r *challengeRoutes) Create(c *gin.Context) {
	st, ok := currentStore(c)
	if !ok {
		return
	}

	var req service.CreateChallengeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Logger().Info("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	view, err := r.cs.Create(c.Request.Context(), st.Challenges, req)
	if err != nil {
		writeError(c, "failed to create challenge", err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (r *challengeRoutes) Delete(c *gin.Context) {
	st, ok := currentStore(c)
	if !ok {
		return
	}

	if err := r.cs.Delete(c.Request.Context(), st.Challenges, c.Param("id")); err != nil {
		writeError(c, "failed to delete challenge", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (r *challengeRoutes) Advance(c *gin.Context) {
	st, ok := currentStore(c)
	if !ok {
		return
	}

	view, err := r.cs.Advance(c.Request.Context(), st.Challenges, c.Param("id"))
	if err != nil {
		writeError(c, "failed to advance challenge", err)
		return
	}

	c.JSON(http.StatusOK, view)
}

type LogQuranRequest struct {
	Amount    *int `json:"amount" binding:"required"`
	FinishDay bool `json:"finish_day"`
}

func (r *challengeRoutes) LogQuran(c *gin.Context) {
	st, ok := currentStore(c)
	if !ok {
		return
	}

	var req LogQuranRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}

	view, err := r.cs.LogQuran(c.Request.Context(), st.Challenges, c.Param("id"), *req.Amount, req.FinishDay)
	if err != nil {
		writeError(c, "failed to log reading", err)
		return
	}

	c.JSON(http.StatusOK, view)
}

type LogDhikrRequest struct {
	Amount int  `json:"amount"`
	Reset  bool `json:"reset"`
}

func (r *challengeRoutes) LogDhikr(c *gin.Context) {
	st, ok := currentStore(c)
	if !ok {
		return
	}

	var req LogDhikrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	amount := req.Amount
	if req.Reset {
		amount = tracker.DhikrResetAmount
	}

	view, err := r.cs.LogDhikr(c.Request.Context(), st.Challenges, c.Param("id"), amount)
	if err != nil {
		writeError(c, "failed to log dhikr", err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (r *challengeRoutes) ToggleHabit(c *gin.Context) {
	st, ok := currentStore(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid habit index"})
		return
	}

	view, err := r.cs.ToggleHabit(c.Request.Context(), st.Challenges, c.Param("id"), index, c.Query("date"))
	if err != nil {
		writeError(c, "failed to toggle habit", err)
		return
	}

	c.JSON(http.StatusOK, view)
}
