package api

import (
	"net/http"
	"time"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/advisor/engine"
	apperrors "agrichain/internal/common/errors"
	"agrichain/internal/common/logger"
	"agrichain/internal/common/validation"
	"agrichain/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	deps   Deps
	logger logger.Logger
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Detail string   `json:"detail,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// AnalyzeResponse wraps the result with request metadata.
type AnalyzeResponse struct {
	RequestID   string `json:"requestId"`
	GeneratedAt string `json:"generatedAt"`
	*models.AnalysisResult
}

func (h *Handler) Analyze(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "Invalid JSON body",
			Code:   string(apperrors.ErrCodeInvalidRequest),
			Detail: err.Error(),
		})
		return
	}

	for _, key := range []string{"cropType", "state", "district", "harvestStage", "storageType"} {
		if s, ok := raw[key].(string); ok {
			raw[key] = catalog.NormalizeKey(s)
		}
	}
	result, err := validation.Validate(catalog.RequestSchema(), raw)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !result.Valid {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "Validation failed",
			Code:   string(apperrors.ErrCodeInvalidRequest),
			Fields: result.GetErrorMessages(),
		})
		return
	}

	req := engine.Normalize(requestFrom(raw))
	res, err := h.deps.Analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		h.analysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{
		RequestID:      uuid.New().String(),
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
		AnalysisResult: res,
	})
}

// requestFrom reads a schema-validated document.
func requestFrom(raw map[string]interface{}) models.AnalysisRequest {
	str := func(k string) string { s, _ := raw[k].(string); return s }
	land, _ := raw["landSize"].(float64)
	return models.AnalysisRequest{
		CropType:     str("cropType"),
		State:        str("state"),
		District:     str("district"),
		HarvestStage: str("harvestStage"),
		StorageType:  str("storageType"),
		LandSize:     land,
	}
}

func (h *Handler) analysisError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	switch code {
	case apperrors.ErrCodeUnsupportedCrop,
		apperrors.ErrCodeUnsupportedRegion,
		apperrors.ErrCodeNoReachableMarket,
		apperrors.ErrCodeInvalidRequest:
		stdErr := apperrors.Normalize(err)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:  stdErr.Message,
			Code:   string(code),
			Detail: stdErr.Details,
		})
	default:
		h.internalError(c, err)
	}
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.logger.Error("analysis failed", map[string]interface{}{"error": err.Error()})
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "Internal server error",
		Code:  string(apperrors.ErrCodeAnalysisFailed),
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"service":      h.deps.Service,
		"version":      h.deps.Version,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"forecastMode": h.deps.ForecastMode,
		"priceData":    h.deps.PriceSummary,
	})
}

type cropInfo struct {
	Key           string   `json:"key"`
	Name          string   `json:"name"`
	Perishability string   `json:"perishability"`
	Stages        []string `json:"stages"`
}

type stateInfo struct {
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	Districts []string `json:"districts"`
}

// Catalog lists everything a client needs to build a valid request.
func (h *Handler) Catalog(c *gin.Context) {
	crops := make([]cropInfo, 0, len(catalog.Crops()))
	for _, k := range catalog.Crops() {
		p, _ := catalog.Profile(string(k))
		crops = append(crops, cropInfo{
			Key:           string(k),
			Name:          p.DisplayName,
			Perishability: string(p.Perishability),
			Stages:        catalog.Stages(),
		})
	}

	states := make([]stateInfo, 0, len(catalog.States()))
	for _, s := range catalog.States() {
		states = append(states, stateInfo{Key: s, Name: catalog.Title(s), Districts: catalog.Districts(s)})
	}

	storages := make([]gin.H, 0, len(catalog.Storages()))
	for _, s := range catalog.Storages() {
		p, _ := catalog.Storage(s)
		storages = append(storages, gin.H{"key": s, "name": p.DisplayName, "activeCooling": p.ActiveCooling})
	}

	c.JSON(http.StatusOK, gin.H{
		"crops":   crops,
		"states":  states,
		"storage": storages,
		"schema":  catalog.RequestSchema(),
	})
}

func (h *Handler) Info(c *gin.Context) {
	crops := make([]string, 0, len(catalog.Crops()))
	for _, k := range catalog.Crops() {
		crops = append(crops, string(k))
	}
	c.JSON(http.StatusOK, gin.H{
		"name":    "AgriChain — Farm-to-Market Intelligence API",
		"version": h.deps.Version,
		"endpoints": gin.H{
			"POST /api/v1/analyze": "Full farm advisory (harvest + market + spoilage + explanations)",
			"GET  /api/v1/health":  "Service health check",
			"GET  /api/v1/catalog": "Supported crops, regions, stages and storage types",
		},
		"supported_crops":  crops,
		"supported_states": catalog.States(),
	})
}
