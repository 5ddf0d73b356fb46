package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Auth      *AuthHandler
	OAuth     *OAuthHandler
	Contracts *ContractHandler
	Versions  *VersionHandler
	Shares    *ShareHandler
	Documents *DocumentHandler
}

// Register mounts the API under /api. auth guards every route that needs a
// session; share links and sign-in are public.
func (h *Handlers) Register(router gin.IRouter, auth gin.HandlerFunc) {
	api := router.Group("/api")
	{
		api.POST("/auth/login", h.Auth.Login)
		if h.OAuth != nil {
			api.GET("/oauth/login", h.OAuth.Login)
			api.GET("/oauth/callback", h.OAuth.Callback)
		}
		api.GET("/public/shares/:token", h.Shares.View)
		api.POST("/public/shares/:token/sign", h.Shares.Sign)
	}

	protected := api.Group("/")
	protected.Use(auth)
	{
		protected.GET("/auth/me", h.Auth.Me)

		protected.POST("/contracts", h.Contracts.Create)
		protected.GET("/contracts", h.Contracts.List)
		protected.GET("/contracts/:id", h.Contracts.Get)
		protected.PUT("/contracts/:id", h.Contracts.Update)
		protected.POST("/contracts/:id/status", h.Contracts.UpdateStatus)
		protected.GET("/contracts/:id/actions", h.Contracts.Actions)
		protected.GET("/contracts/:id/signatures", h.Contracts.Signatures)
		protected.POST("/contracts/:id/send", h.Contracts.SendToArtist)
		protected.GET("/bookings/:id/contract", h.Contracts.GetByBooking)

		protected.POST("/contracts/:id/share", h.Shares.Share)
		protected.GET("/contracts/:id/shares", h.Shares.History)
		protected.GET("/shares/:id", h.Shares.Get)
		protected.POST("/shares/:id/reminder", h.Shares.Reminder)
		protected.DELETE("/shares/:id", h.Shares.Revoke)

		protected.GET("/contracts/:id/pdf", h.Documents.Contract)
		protected.GET("/contracts/:id/pdf-link", h.Documents.Link)
		protected.GET("/contracts/:id/versions/:number/pdf", h.Documents.Version)

		protected.GET("/contracts/:id/versions", h.Versions.History)
		protected.GET("/contracts/:id/version-stats", h.Versions.Stats)
		protected.GET("/contracts/:id/versions/:number", h.Versions.Get)
		protected.GET("/contracts/:id/compare", h.Versions.Compare)
		protected.POST("/contracts/:id/rollback", h.Versions.Rollback)
	}
}
