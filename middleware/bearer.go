// Package middleware holds the echo middlewares of the HTTP surface.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.pilab.hu/esign/dto"
	"go.pilab.hu/esign/log"
)

// providerTokenKey is the echo context key holding the caller's provider token.
const providerTokenKey = "_provider_token"

// BearerToken requires an "Authorization: Bearer <token>" header and stores
// the token for the handler. The token is a provider access token the caller
// obtained from the token endpoint; it is forwarded, not validated locally.
func BearerToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				return c.JSON(http.StatusUnauthorized, dto.Response{
					Success: 0,
					Message: "Missing or invalid Authorization header",
				})
			}

			c.Set(providerTokenKey, strings.TrimSpace(parts[1]))

			return next(c)
		}
	}
}

// TokenFrom returns the token stored by BearerToken.
func TokenFrom(c echo.Context) string {
	token, _ := c.Get(providerTokenKey).(string)
	return token
}

// AccessLog logs one line per request through logger.
func AccessLog(logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := map[string]interface{}{
				"method":     req.Method,
				"path":       req.URL.Path,
				"status":     c.Response().Status,
				"latency":    time.Since(start).String(),
				"ip":         c.RealIP(),
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}
			if err != nil {
				logger.Error(req.Context(), "HTTP Request", err, fields)
			} else {
				logger.Info(req.Context(), "HTTP Request", fields)
			}

			return nil
		}
	}
}
