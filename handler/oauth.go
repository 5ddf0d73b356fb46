package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/OlogyCrew/ologywoodv3/config"
	"github.com/OlogyCrew/ologywoodv3/middleware"
	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/OlogyCrew/ologywoodv3/pkg/logger"
	"github.com/OlogyCrew/ologywoodv3/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OAuthHandler completes third-party sign in and issues the session cookie.
type OAuthHandler struct {
	oauth   *service.OAuthService
	auth    *config.AuthConfig
	timeout time.Duration
}

func NewOAuthHandler(oauth *service.OAuthService, cfg *config.Config) *OAuthHandler {
	return &OAuthHandler{oauth: oauth, auth: &cfg.Auth, timeout: cfg.OAuth.Timeout()}
}

// Login redirects the browser to the identity provider
func (h *OAuthHandler) Login(c *gin.Context) {
	c.Redirect(http.StatusFound, h.oauth.AuthCodeURL(uuid.NewString()))
}

// Callback exchanges the authorization code and signs the user in.
func (h *OAuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and state are required"})
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	user, err := h.oauth.SignIn(ctx, code, state)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			logger.Warn(ctx, "oauth callback timed out", "error", err)
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "OAuth callback timed out"})
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error(ctx, "oauth callback failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "OAuth callback failed"})
		}
		return
	}

	session := time.Duration(h.auth.SessionDays) * 24 * time.Hour
	actor := model.Actor{UserID: user.ID, Name: user.Name, Role: user.Role}
	token, _, err := middleware.GenerateToken(actor, h.auth.JWTSecret, session)
	if err != nil {
		logger.Error(ctx, "session token signing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "OAuth callback failed"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.auth.CookieName, token, int(session.Seconds()), "/", "", isSecure(c.Request), true)
	c.Redirect(http.StatusFound, "/")
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
