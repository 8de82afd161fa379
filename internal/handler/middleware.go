package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/floodwatch/auth-bridge/internal/dto"
	"github.com/floodwatch/auth-bridge/internal/service"
	"github.com/floodwatch/auth-bridge/internal/utils"
)

// contextUserKey is where the authenticated user lands in the gin context
const contextUserKey = "auth_user"

// AuthMiddleware authenticates protected routes. The bearer credential may be
// a bridge-issued token or a provider session JWT; the bridge token is tried
// first since validating it is a single indexed read.
func AuthMiddleware(tokenService service.TokenService, syncService service.SyncService, verifier *utils.ProviderVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}
		credential := parts[1]

		if issued, err := tokenService.Validate(c.Request.Context(), credential); err == nil {
			c.Set(contextUserKey, issued.User)
			c.Next()
			return
		}

		// Fall back to a provider session JWT for subjects that signed in
		// upstream but have not minted a bridge token yet.
		externalID, err := verifier.VerifySessionToken(credential)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired credential")
			return
		}

		user, err := syncService.Lookup(c.Request.Context(), externalID)
		if err != nil {
			abortUnauthorized(c, "Unknown subject, sync first")
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error:   "Unauthorized",
		Code:    "invalid_token",
		Message: message,
	})
	c.Abort()
}
