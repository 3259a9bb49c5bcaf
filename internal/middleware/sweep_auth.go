package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SweepTokenHeader carries the external scheduler's shared secret.
const SweepTokenHeader = "X-Sweep-Token"

// SweepAuthMiddleware guards the sweep trigger with a shared secret. The
// engine itself performs no credential checks; this is the calling layer's
// gate in front of it.
type SweepAuthMiddleware struct {
	token string
}

// NewSweepAuthMiddleware creates a new SweepAuthMiddleware.
func NewSweepAuthMiddleware(token string) *SweepAuthMiddleware {
	return &SweepAuthMiddleware{token: token}
}

// Authenticate returns an Echo middleware that validates the sweep token
// with a constant-time comparison.
func (m *SweepAuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provided := c.Request().Header.Get(SweepTokenHeader)
			if provided == "" {
				return unauthorizedError(c, "Missing sweep token")
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(m.token)) != 1 {
				log.Warn().Str("path", c.Request().URL.Path).Msg("Rejected sweep trigger with bad token")
				return unauthorizedError(c, "Invalid sweep token")
			}
			return next(c)
		}
	}
}
