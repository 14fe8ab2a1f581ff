package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/greenridge/farmops/internal/model"
	"github.com/greenridge/farmops/pkg/jwtutil"
	"github.com/greenridge/farmops/pkg/logger"
	"github.com/greenridge/farmops/prometheus"
)

// TenantStatusFunc looks up a tenant's lifecycle status. A nil func skips
// the status gate (used by tests and trust-the-token deployments).
type TenantStatusFunc func(ctx context.Context, tenantID uint) (string, error)

// Auth validates the JWT token, extracts tenant information into the echo
// context and refuses requests from suspended tenants.
func Auth(jwt *jwtutil.JWTUtil, tenantStatus TenantStatusFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)
			prometheus.AuthAttemptsCounter.Inc()

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				prometheus.RecordAuthError("bad_header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := jwt.ValidateToken(parts[1])
			if err != nil {
				log.Error("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)

			if claims.TenantID == nil {
				log.Warn("JWT token does not contain tenant_id")
				prometheus.TenantContextMissingCounter.Inc()
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required in the token"})
			}

			if tenantStatus != nil {
				status, err := tenantStatus(c.Request().Context(), *claims.TenantID)
				if err != nil {
					log.Error("Failed to resolve tenant status",
						zap.Uint("tenant_id", *claims.TenantID),
						zap.Error(err))
					prometheus.RecordAuthError("tenant_lookup_failed")
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve tenant"})
				}
				if status == model.TenantSuspended {
					log.Warn("Request from suspended tenant refused",
						zap.Uint("tenant_id", *claims.TenantID))
					prometheus.RecordAuthError("tenant_suspended")
					return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant is suspended"})
				}
			}

			c.Set("tenant_id", *claims.TenantID)
			c.Set("tenant_name", claims.TenantName)
			c.Set("user_role", claims.Role)

			return next(c)
		}
	}
}

// GetTenantIDFromContext retrieves the tenant ID from the context.
// Returns 0, false if tenant ID is not found.
func GetTenantIDFromContext(c echo.Context) (uint, bool) {
	tenantID, ok := c.Get("tenant_id").(uint)
	return tenantID, ok
}
