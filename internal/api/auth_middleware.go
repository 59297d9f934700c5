// internal/api/auth_middleware.go
package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/akashia/dreambank/internal/auth"
	"github.com/akashia/dreambank/internal/utils"
)

const (
	adminQueryParam     = "admin"
	adminPasswordHeader = "X-Admin-Password"
)

// adminCredential checks, in order, the ?admin= query, the password header
// and a Bearer token. A request presenting none is not an admin.
func adminCredential(c *gin.Context, gate *auth.AdminAuth) error {
	if password := c.Query(adminQueryParam); password != "" {
		return gate.CheckPassword(password)
	}
	if password := c.GetHeader(adminPasswordHeader); password != "" {
		return gate.CheckPassword(password)
	}
	if header := c.GetHeader("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return auth.ErrInvalidToken
		}
		return gate.VerifyToken(strings.TrimSpace(token))
	}
	if !gate.Enabled() {
		return auth.ErrAdminDisabled
	}
	return auth.ErrInvalidPassword
}

// RequireAdmin answers 403 unless the request carries a valid admin
// credential
func RequireAdmin(gate *auth.AdminAuth, response *ResponseHelper) gin.HandlerFunc {
	logger := utils.GetLogger()

	return func(c *gin.Context) {
		if err := adminCredential(c, gate); err != nil {
			fields := map[string]interface{}{
				"path":   c.Request.URL.Path,
				"client": c.ClientIP(),
			}
			if !errors.Is(err, auth.ErrAdminDisabled) {
				fields["reason"] = err.Error()
			}
			logger.Warn("admin access denied", fields)
			response.Forbidden(c, "admin credentials required")
			return
		}
		c.Next()
	}
}
