package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sacolalabs/ideiad/internal/auth"
)

// identityKey is the echo context key the verified caller identity lives
// under between the auth middleware and the handlers.
const identityKey = "ideiad.identity"

// requireAuth verifies the Bearer token and stores the caller identity in the
// request context. Every failure mode is a 401; handlers behind it can assume
// a valid identity.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication token not provided")
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token format, use 'Bearer <token>'")
		}

		ident, err := s.tokens.Verify(token)
		if err != nil {
			s.logger.Debug("token verification failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(identityKey, ident)
		return next(c)
	}
}

// identityFrom extracts the identity stored by requireAuth.
func identityFrom(c echo.Context) (auth.Identity, bool) {
	ident, ok := c.Get(identityKey).(auth.Identity)
	return ident, ok
}
