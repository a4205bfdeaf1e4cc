package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kramxie/neo-routine-sub000/middleware"
	"github.com/Kramxie/neo-routine-sub000/models"
	"github.com/Kramxie/neo-routine-sub000/store"
	"github.com/Kramxie/neo-routine-sub000/utils"
)

// AuthController handles registration, login and the current session.
type AuthController struct {
	Deps
}

// NewAuthController creates an AuthController.
func NewAuthController(d Deps) *AuthController {
	return &AuthController{Deps: d}
}

// Register creates a local account with a bcrypt hashed password.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required,min=2,max=64"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6,max=72"`
		Role     string `json:"role"`
		CoachID  *uint  `json:"coach_id"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	username := utils.SanitizeLabel(req.Username)
	if username == "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username must not be empty")
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleCoach {
		utils.Error(ctx, http.StatusBadRequest, 40002, "role must be user or coach")
		return
	}

	rctx := ctx.Request.Context()
	if req.CoachID != nil {
		coach, err := a.Store.GetUser(rctx, *req.CoachID)
		if err != nil || coach.Role != models.RoleCoach {
			utils.Error(ctx, http.StatusBadRequest, 40003, "unknown coach")
			return
		}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         role,
		CoachID:      req.CoachID,
	}
	if err := a.Store.CreateUser(rctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			utils.Error(ctx, http.StatusConflict, 40901, "email already registered")
			return
		}
		a.logger().Error("create user failed", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	token, err := utils.GenerateToken(a.Config.JWTSecret, user.ID, user.Username, user.Role, a.Config.TokenTTL())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

// Login verifies credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid request payload")
		return
	}

	user, err := a.Store.GetUserByEmail(ctx.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	token, err := utils.GenerateToken(a.Config.JWTSecret, user.ID, user.Username, user.Role, a.Config.TokenTTL())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  userResponse(*user),
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	claims, err := utils.ParseToken(a.Config.JWTSecret, token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(a.Config.TokenTTL())
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	if a.Blacklist != nil {
		a.Blacklist.Revoke(ctx.Request.Context(), token, expiresAt)
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	user, err := a.Store.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	utils.Success(ctx, userResponse(*user))
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"role":       user.Role,
		"coach_id":   user.CoachID,
		"analytics":  user.Analytics,
		"created_at": user.CreatedAt,
	}
}
