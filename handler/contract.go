package handler

import (
	"net/http"

	"github.com/OlogyCrew/ologywoodv3/middleware"
	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/OlogyCrew/ologywoodv3/service"
	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	contracts *service.ContractService
	engine    *service.TransitionEngine
	sharing   *service.SharingService
}

func NewContractHandler(contracts *service.ContractService, engine *service.TransitionEngine, sharing *service.SharingService) *ContractHandler {
	return &ContractHandler{contracts: contracts, engine: engine, sharing: sharing}
}

// Create creates a draft contract
func (h *ContractHandler) Create(c *gin.Context) {
	var req service.CreateContractInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	contract, err := h.contracts.Create(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

// List returns the contracts visible to the caller
func (h *ContractHandler) List(c *gin.Context) {
	contracts, err := h.contracts.List(c.Request.Context(), middleware.GetActor(c))
	respondList(c, contracts, err)
}

func (h *ContractHandler) Get(c *gin.Context) {
	contract, err := h.contracts.Get(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	respondItem(c, contract, err)
}

// GetByBooking returns the contract created for a booking
func (h *ContractHandler) GetByBooking(c *gin.Context) {
	contract, err := h.contracts.GetByBooking(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	respondItem(c, contract, err)
}

// UpdateContentRequest carries the fields to change. Omitted fields keep
// their current value.
type UpdateContentRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ContractType *string `json:"contract_type"`
	Terms        *string `json:"terms"`
	Summary      string  `json:"changes_summary"`
}

func (r UpdateContentRequest) patch() service.ContentPatch {
	return service.ContentPatch{
		Title:        r.Title,
		Description:  r.Description,
		ContractType: r.ContractType,
		Terms:        r.Terms,
	}
}

// Update edits the contract's content and records a version.
func (h *ContractHandler) Update(c *gin.Context) {
	var req UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	contract, version, err := h.contracts.PatchContent(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req.patch(), req.Summary)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract, "version": version})
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus moves the contract through its lifecycle
func (h *ContractHandler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	target, err := model.ParseStatus(req.Status)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.engine.Transition(c.Request.Context(), middleware.GetActor(c), c.Param("id"), target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ContractHandler) Actions(c *gin.Context) {
	actions, err := h.engine.Actions(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	respondItem(c, actions, err)
}

func (h *ContractHandler) Signatures(c *gin.Context) {
	sigs, err := h.contracts.Signatures(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	respondList(c, sigs, err)
}

type SendToArtistRequest struct {
	ArtistID    string `json:"artist_id" binding:"required"`
	ArtistEmail string `json:"artist_email" binding:"required"`
	Message     string `json:"message"`
}

// SendToArtist emails the contract to its artist
func (h *ContractHandler) SendToArtist(c *gin.Context) {
	var req SendToArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "artist_id and artist_email are required")
		return
	}

	res, err := h.sharing.SendToArtist(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req.ArtistID, req.ArtistEmail, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
