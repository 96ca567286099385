package api

import (
	"net/http"
	"time"

	"QH_quranhabits/internal/middleware"
	"QH_quranhabits/internal/model"
	"QH_quranhabits/internal/service"
	"QH_quranhabits/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	eventsWriteWait  = 10 * time.Second
	eventsPongWait   = 60 * time.Second
	eventsPingPeriod = eventsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type authRoutes struct {
	as service.AuthServiceI
}

func NewAuthRoutes(handler *gin.RouterGroup, as service.AuthServiceI) {
	r := &authRoutes{as: as}
	h := handler.Group("/auth")
	{
		h.POST("/signup", r.SignUp)
		h.POST("/signin", r.SignIn)
		h.POST("/password-reset", r.RequestPasswordReset)
		h.POST("/password-reset/confirm", r.ResetPassword)

		h.POST("/signout", middleware.RequireUser(), r.SignOut)
		h.GET("/session", middleware.RequireUser(), r.Session)
		h.GET("/events", middleware.RequireUser(), r.Events)
	}
}

type authResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func newAuthResponse(result *model.AuthResult) authResponse {
	return authResponse{
		User:      newUserResponse(result.User),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC(),
	}
}

func (r *authRoutes) SignUp(c *gin.Context) {
	var req service.SignUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := r.as.SignUp(c.Request.Context(), req)
	if err != nil {
		writeError(c, "failed to sign up", err)
		return
	}

	c.JSON(http.StatusCreated, newAuthResponse(result))
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *authRoutes) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := r.as.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, "failed to sign in", err)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

func (r *authRoutes) SignOut(c *gin.Context) {
	if err := r.as.SignOut(c.Request.Context(), c.GetString(middleware.TokenKey)); err != nil {
		writeError(c, "failed to sign out", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (r *authRoutes) Session(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	out := gin.H{"user": newUserResponse(user)}
	if value, exists := c.Get(middleware.AuthSessionKey); exists {
		if session, ok := value.(*model.AuthSession); ok {
			out["expires_at"] = session.ExpiresAt.UTC()
		}
	}
	c.JSON(http.StatusOK, out)
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

func (r *authRoutes) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := r.as.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		writeError(c, "failed to request password reset", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "if the address is registered, a reset link has been sent"})
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (r *authRoutes) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := r.as.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		writeError(c, "failed to reset password", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Events streams the user's auth state changes until the socket closes.
func (r *authRoutes) Events(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := r.as.Subscribe(user.ID)
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case ev, open := <-events:
			if !open {
				return
			}
			out, err := json.Marshal(ev)
			if err != nil {
				log.Error("failed to marshal auth event", zap.Error(err))
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				log.Debug("auth event stream closed", zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
