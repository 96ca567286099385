package middleware

import (
	"context"
	"errors"
	"net/http"

	"QH_quranhabits/internal/metrics"
	"QH_quranhabits/internal/model"
	"QH_quranhabits/internal/service"
	"QH_quranhabits/internal/store"
	"QH_quranhabits/pkg/auth"
	"QH_quranhabits/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

const (
	DeviceIDHeader = "X-Device-ID"

	// AccessTokenParam carries the token for websocket handshakes, which cannot set headers.
	AccessTokenParam = "access_token"

	UserKey        = "user"
	AuthSessionKey = "auth_session"
	TokenKey       = "token"
	StoreKey       = "store"
)

type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*model.User, *model.AuthSession, error)
}

// Session opens the per-request store. A request without a bearer token is
// served from the device's local cache only; a token that does not resolve to
// an active session is rejected.
type Session struct {
	resolver SessionResolver
	factory  *store.Factory
}

func NewSession(resolver SessionResolver, factory *store.Factory) *Session {
	return &Session{
		resolver: resolver,
		factory:  factory,
	}
}

func (s *Session) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		session := store.Session{
			DeviceID: store.NormalizeDeviceID(c.GetHeader(DeviceIDHeader)),
		}

		header := c.GetHeader("Authorization")
		if header == "" && c.Query(AccessTokenParam) != "" {
			header = "Bearer " + c.Query(AccessTokenParam)
		}

		if header != "" {
			token, ok := auth.BearerToken(header)
			if !ok {
				metrics.AuthRejections.WithLabelValues("malformed_header").Inc()
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
				return
			}

			user, authSession, err := s.resolver.GetSession(c.Request.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrInvalidSession) {
					metrics.AuthRejections.WithLabelValues("invalid_session").Inc()
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session is invalid or expired"})
					return
				}
				log.Error("failed to resolve session", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}

			session.User = user
			c.Set(UserKey, user)
			c.Set(AuthSessionKey, authSession)
			c.Set(TokenKey, token)
		}

		c.Set(StoreKey, s.factory.Open(session))
		c.Next()
	}
}
