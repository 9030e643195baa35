package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/trackshare/internal/common"
	"github.com/dmitrijs2005/trackshare/internal/server/session"
	"github.com/gin-gonic/gin"
)

// sessionMiddleware binds the cookie's identity, if any, and installs a sink
// that turns newly issued tokens into a Set-Cookie header.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if token, err := c.Cookie(s.opts.CookieName); err == nil && token != "" {
			id, perr := s.sessions.ParseSessionToken(token)
			switch {
			case perr == nil:
				ctx = session.WithIdentity(ctx, id)
			case errors.Is(perr, common.ErrTokenExpired):
				s.logger.Debug(ctx, "session cookie expired")
			default:
				s.logger.Warn(ctx, "malformed session cookie", "error", perr, "ip", c.ClientIP())
			}
		}

		ctx = session.WithSink(ctx, session.SinkFunc(func(token string) {
			s.setSessionCookie(c, token)
		}))

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessions.SessionValidity().Seconds()),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
