package handler

import (
	"net/http"

	"github.com/OlogyCrew/ologywoodv3/middleware"
	"github.com/OlogyCrew/ologywoodv3/service"
	"github.com/gin-gonic/gin"
)

type ShareHandler struct {
	sharing *service.SharingService
}

func NewShareHandler(sharing *service.SharingService) *ShareHandler {
	return &ShareHandler{sharing: sharing}
}

// Share emails the contract PDF to an external recipient
func (h *ShareHandler) Share(c *gin.Context) {
	var req service.ShareInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	share, err := h.sharing.Share(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, share)
}

func (h *ShareHandler) History(c *gin.Context) {
	shares, err := h.sharing.History(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	respondList(c, shares, err)
}

func (h *ShareHandler) Get(c *gin.Context) {
	share, err := h.sharing.GetShare(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	respondItem(c, share, err)
}

func (h *ShareHandler) Reminder(c *gin.Context) {
	share, err := h.sharing.SendReminder(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, share)
}

func (h *ShareHandler) Revoke(c *gin.Context) {
	share, err := h.sharing.Revoke(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, share)
}

// View opens a share link. No session is required; the token is the credential.
func (h *ShareHandler) View(c *gin.Context) {
	shared, err := h.sharing.View(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shared)
}

type SignRequest struct {
	Signature string `json:"signature" binding:"required"`
}

func (h *ShareHandler) Sign(c *gin.Context) {
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "signature is required")
		return
	}

	share, err := h.sharing.SignByToken(c.Request.Context(), c.Param("token"), req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, share)
}
