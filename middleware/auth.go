package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kramxie/neo-routine-sub000/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextRoleKey stores the account role inside Gin context.
	ContextRoleKey = "role"
	// ContextTokenKey stores the raw bearer token for logout.
	ContextTokenKey = "token"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(ctx *gin.Context) (string, int, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", 40101, "authorization header missing"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", 40102, "invalid authorization header format"
	}
	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", 40103, "empty bearer token"
	}
	return tokenString, 0, ""
}

// AuthRequired ensures the request is authenticated via JWT signed with secret
// and not revoked in blacklist.
func AuthRequired(secret string, blacklist *utils.TokenBlacklist) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, code, msg := BearerToken(ctx)
		if code != 0 {
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}

		if blacklist != nil && blacklist.IsRevoked(ctx.Request.Context(), tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(secret, tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextRoleKey, claims.Role)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Next()
	}
}

// RequireRole rejects authenticated requests whose role differs from role.
func RequireRole(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetString(ContextRoleKey) != role {
			utils.Error(ctx, http.StatusForbidden, 40301, "forbidden")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
