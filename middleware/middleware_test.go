package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kramxie/neo-routine-sub000/utils"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(bl *utils.TokenBlacklist, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthRequired(secret, bl)}, extra...)
	handlers = append(handlers, func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{
			"user_id": ctx.GetUint(ContextUserIDKey),
			"role":    ctx.GetString(ContextRoleKey),
		})
	})
	r.GET("/p", handlers...)
	return r
}

func get(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	bl := utils.NewTokenBlacklist(utils.NewMemoryCache(nil), nil)
	r := protectedRouter(bl)

	token, err := utils.GenerateToken(secret, 7, "ana", "user", time.Hour)
	require.NoError(t, err)

	w := get(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	data, err := utils.DecodeEnvelope[struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role"`
	}](w.Body)
	require.NoError(t, err)
	assert.EqualValues(t, 7, data.UserID)
	assert.Equal(t, "user", data.Role)

	cases := map[string]int{
		"":                 40101,
		"Token abc":        40102,
		"Bearer ":          40103,
		"Bearer not-a-jwt": 40105,
	}
	for header, code := range cases {
		w := get(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		_, err := utils.DecodeEnvelope[map[string]interface{}](w.Body)
		var apiErr *utils.APIError
		require.ErrorAs(t, err, &apiErr, header)
		assert.Equal(t, code, apiErr.Code, header)
	}

	bl.Revoke(context.Background(), token, time.Now().Add(time.Hour))
	w = get(r, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := protectedRouter(nil, RequireRole("coach"))

	userToken, _ := utils.GenerateToken(secret, 1, "ana", "user", time.Hour)
	coachToken, _ := utils.GenerateToken(secret, 2, "bo", "coach", time.Hour)

	assert.Equal(t, http.StatusForbidden, get(r, "Bearer "+userToken).Code)
	assert.Equal(t, http.StatusOK, get(r, "Bearer "+coachToken).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/p", RateLimitMiddleware(4), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	// burst is perMinute/2
	assert.Equal(t, http.StatusNoContent, get(r, "").Code)
	assert.Equal(t, http.StatusNoContent, get(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "").Code)
}
