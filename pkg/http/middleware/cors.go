package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	corsAllowMethods = "GET, HEAD"
	corsAllowHeaders = "Accept, Content-Type, X-Request-ID"
	corsMaxAge       = "600"
)

// ReadOnlyCORS lets browsers call the forecast API from the listed origins.
// No origins, or "*", admits any origin. Every route is a GET, so a preflight
// asking for another method is refused.
func ReadOnlyCORS(origins ...string) echo.MiddlewareFunc {
	anyOrigin := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			anyOrigin = true
		}
		allowed[o] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			origin := req.Header.Get(echo.HeaderOrigin)
			if origin == "" {
				return next(c)
			}
			if _, ok := allowed[origin]; !ok && !anyOrigin {
				return next(c)
			}

			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			if anyOrigin {
				h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			} else {
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			}
			h.Set(echo.HeaderAccessControlExposeHeaders, echo.HeaderXRequestID)

			if req.Method != http.MethodOptions {
				return next(c)
			}
			switch req.Header.Get(echo.HeaderAccessControlRequestMethod) {
			case "", http.MethodGet, http.MethodHead:
			default:
				return c.NoContent(http.StatusForbidden)
			}
			h.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
			h.Set(echo.HeaderAccessControlMaxAge, corsMaxAge)
			return c.NoContent(http.StatusNoContent)
		}
	}
}
