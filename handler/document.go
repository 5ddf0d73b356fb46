package handler

import (
	"fmt"
	"net/http"

	"github.com/OlogyCrew/ologywoodv3/middleware"
	"github.com/OlogyCrew/ologywoodv3/pkg/logger"
	"github.com/OlogyCrew/ologywoodv3/service"
	"github.com/gin-gonic/gin"
)

const pdfContentType = "application/pdf"

// DocumentHandler serves rendered contract PDFs.
type DocumentHandler struct {
	exporter *service.PDFExporter
	archive  service.DocumentArchive
}

// NewDocumentHandler creates the handler. archive may be nil, in which case
// download links are unavailable.
func NewDocumentHandler(exporter *service.PDFExporter, archive service.DocumentArchive) *DocumentHandler {
	return &DocumentHandler{exporter: exporter, archive: archive}
}

func attachment(c *gin.Context, doc service.PDFDocument, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename()))
	c.Data(http.StatusOK, pdfContentType, data)
}

func (h *DocumentHandler) Contract(c *gin.Context) {
	data, doc, err := h.exporter.Contract(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, doc, data)
}

func (h *DocumentHandler) Version(c *gin.Context) {
	number, ok := intParam(c.Param("number"))
	if !ok {
		badRequest(c, "Invalid version number")
		return
	}
	data, doc, err := h.exporter.Version(c.Request.Context(), middleware.GetActor(c), c.Param("id"), number)
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, doc, data)
}

// Link archives the current PDF and returns a presigned download URL.
func (h *DocumentHandler) Link(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document archive is not configured"})
		return
	}

	ctx := c.Request.Context()
	data, doc, err := h.exporter.Contract(ctx, middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	object := service.ArchiveObjectName(doc.ContractID)
	if err := h.archive.Put(ctx, object, data, pdfContentType); err != nil {
		logger.Error(ctx, "archive upload failed", "contract_id", doc.ContractID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to archive document"})
		return
	}
	url, err := h.archive.PresignedURL(ctx, object)
	if err != nil {
		logger.Error(ctx, "presign failed", "contract_id", doc.ContractID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to generate download link"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "filename": doc.Filename()})
}
