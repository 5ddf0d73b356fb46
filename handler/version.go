package handler

import (
	"net/http"

	"github.com/OlogyCrew/ologywoodv3/middleware"
	"github.com/OlogyCrew/ologywoodv3/service"
	"github.com/gin-gonic/gin"
)

type VersionHandler struct {
	versions *service.VersionService
}

func NewVersionHandler(versions *service.VersionService) *VersionHandler {
	return &VersionHandler{versions: versions}
}

// History lists every version of a contract, oldest first
func (h *VersionHandler) History(c *gin.Context) {
	versions, err := h.versions.History(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	respondList(c, versions, err)
}

func (h *VersionHandler) Stats(c *gin.Context) {
	stats, err := h.versions.Stats(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	respondItem(c, stats, err)
}

func (h *VersionHandler) Get(c *gin.Context) {
	number, ok := intParam(c.Param("number"))
	if !ok {
		badRequest(c, "Invalid version number")
		return
	}
	version, err := h.versions.GetVersion(c.Request.Context(), middleware.GetActor(c), c.Param("id"), number)
	respondItem(c, version, err)
}

// Compare diffs two versions given as ?from=&to=
func (h *VersionHandler) Compare(c *gin.Context) {
	from, okFrom := intParam(c.Query("from"))
	to, okTo := intParam(c.Query("to"))
	if !okFrom || !okTo {
		badRequest(c, "from and to must be version numbers")
		return
	}

	cmp, err := h.versions.Compare(c.Request.Context(), middleware.GetActor(c), c.Param("id"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

type RollbackRequest struct {
	VersionNumber int `json:"version_number" binding:"required,min=1"`
}

// Rollback restores an earlier version as a new version
func (h *VersionHandler) Rollback(c *gin.Context) {
	var req RollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "version_number is required")
		return
	}

	version, err := h.versions.Rollback(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req.VersionNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, version)
}
