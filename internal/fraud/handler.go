package fraud

import (
	"context"
	"errors"
	"net/http"

	"github.com/Madhu097/realestate-fraud-detection/internal/fusion"
	"github.com/Madhu097/realestate-fraud-detection/pkg/common"
	"github.com/Madhu097/realestate-fraud-detection/pkg/middleware"
	"github.com/Madhu097/realestate-fraud-detection/pkg/pagination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxBodyBytes bounds a request: 5000 characters of description plus
// headroom for the other fields and image references.
const maxBodyBytes = 64 << 10

// AnalysisService is the part of Service the handler needs.
type AnalysisService interface {
	Analyze(ctx context.Context, listing Listing, persist bool) (*Analysis, error)
	GetAnalysis(ctx context.Context, id uuid.UUID) (*HistoryEntry, error)
	ListAnalyses(ctx context.Context, limit, offset int) ([]*HistoryEntry, int64, error)
	PersistByDefault() bool
}

// Handler handles HTTP requests for listing analysis
type Handler struct {
	service AnalysisService
}

// NewHandler creates a new analysis handler
func NewHandler(service AnalysisService) *Handler {
	return &Handler{service: service}
}

// Analyze scores a listing
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	persist := h.service.PersistByDefault()
	if req.Persist != nil {
		persist = *req.Persist
	}

	analysis, err := h.service.Analyze(c.Request.Context(), req.Listing, persist)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			common.ErrorResponse(c, http.StatusGatewayTimeout, "analysis timed out")
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to analyze listing")
		return
	}

	common.SuccessResponse(c, analysis)
}

// GetWeights returns the fusion weights and thresholds
func (h *Handler) GetWeights(c *gin.Context) {
	common.SuccessResponse(c, WeightsResponse{
		Weights:              fusion.Weights,
		LabelThreshold:       fusion.LabelThreshold,
		ExplanationThreshold: fusion.ExplanationThreshold,
		RiskBands: map[string]float64{
			"MINIMAL":  0,
			"LOW":      0.2,
			"MODERATE": 0.4,
			"HIGH":     0.6,
			"CRITICAL": 0.8,
		},
	})
}

// GetAnalysis returns one stored analysis
func (h *Handler) GetAnalysis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid analysis ID")
		return
	}

	entry, err := h.service.GetAnalysis(c.Request.Context(), id)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get analysis")
		return
	}

	common.SuccessResponse(c, entry)
}

// ListAnalyses returns stored analyses, newest first
func (h *Handler) ListAnalyses(c *gin.Context) {
	params := pagination.ParseParams(c)

	entries, total, err := h.service.ListAnalyses(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list analyses")
		return
	}

	common.SuccessResponseWithMeta(c, entries, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// RegisterRoutes registers analysis routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/analyze", middleware.MaxBodySize(maxBodyBytes), middleware.ValidateJSONContentType(), h.Analyze)
		api.GET("/weights", h.GetWeights)
		api.GET("/history", h.ListAnalyses)
		api.GET("/history/:id", h.GetAnalysis)
	}
}
