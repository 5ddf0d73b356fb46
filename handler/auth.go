package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/OlogyCrew/ologywoodv3/config"
	"github.com/OlogyCrew/ologywoodv3/middleware"
	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/OlogyCrew/ologywoodv3/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	config *config.Config
	users  *service.UserStore
}

func NewAuthHandler(cfg *config.Config, users *service.UserStore) *AuthHandler {
	return &AuthHandler{config: cfg, users: users}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
}

// Login authenticates a static account
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user := h.config.FindUser(req.Username)
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	userID := user.UserID
	if userID == "" {
		userID = user.Username
	}
	role := user.Role
	if role == "" {
		role = model.RoleUser
	}
	actor := model.Actor{UserID: userID, Name: user.Username, Role: role}

	ttl := time.Duration(h.config.Auth.TokenExpireHours) * time.Hour
	token, expiresAt, err := middleware.GenerateToken(actor, h.config.Auth.JWTSecret, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		UserID:    actor.UserID,
		Role:      actor.Role,
	})
}

// Me returns the caller. Static accounts have no user record, only claims.
func (h *AuthHandler) Me(c *gin.Context) {
	actor := middleware.GetActor(c)

	if h.users != nil {
		u, err := h.users.Get(c.Request.Context(), actor.UserID)
		if err == nil {
			c.JSON(http.StatusOK, u)
			return
		}
		if !errors.Is(err, service.ErrNotFound) && !errors.Is(err, service.ErrNotAvailable) {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   actor.UserID,
		"name": actor.Name,
		"role": actor.Role,
	})
}
