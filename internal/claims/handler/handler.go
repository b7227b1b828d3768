package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"claims_backend/internal/claims/service"
	"claims_backend/internal/claims/transport"
	"claims_backend/platform/httpkit"
)

// Handler handles HTTP requests for claims.
type Handler struct {
	svc *service.Service
}

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid claim id"
)

// New creates a new claims handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// CreateClaim submits a claim for processing.
// POST /api/v1/claims
func (h *Handler) CreateClaim(c *gin.Context) {
	var req transport.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	result, err := h.svc.CreateClaim(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// GetClaim returns a claim and its procedures.
// GET /api/v1/claims/:id
func (h *Handler) GetClaim(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.GetClaim(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// TopProviders ranks provider NPIs by total net fee.
// GET /api/v1/claims/top-npis
func (h *Handler) TopProviders(c *gin.Context) {
	var req transport.TopProvidersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.TopProviders(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
