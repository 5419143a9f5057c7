package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/missions-backend/internal/http/response"
	"github.com/yungbote/missions-backend/internal/platform/logger"
	"github.com/yungbote/missions-backend/internal/services"
)

type CertificateHandler struct {
	log          *logger.Logger
	certificates services.CertificateService
}

func NewCertificateHandler(log *logger.Logger, certificates services.CertificateService) *CertificateHandler {
	return &CertificateHandler{log: log.With("handler", "CertificateHandler"), certificates: certificates}
}

// GET /api/certificates
func (h *CertificateHandler) List(c *gin.Context) {
	out, err := h.certificates.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/certificates/:id/download
func (h *CertificateHandler) Download(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	cert, body, err := h.certificates.Download(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, cert.PDFFilename()))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		h.log.Warn("certificate download interrupted", "certificate_id", cert.ID, "error", err)
	}
}

// GET /api/verify/:code (public)
func (h *CertificateHandler) Verify(c *gin.Context) {
	out, err := h.certificates.Verify(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}
