package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/verre/backend/internal/domain"
	"github.com/verre/backend/internal/infrastructure/google"
	"github.com/verre/backend/internal/usecase"
)

const (
	serviceName    = "verre-backend"
	serviceVersion = "1.0.0"

	photoCacheControl = "public, max-age=86400, s-maxage=86400, immutable"
	genericErrorBody  = "Internal server error"
)

// PhotoFetcher downloads place photos for the proxy endpoint
type PhotoFetcher interface {
	FetchPhoto(ctx context.Context, pr google.PhotoRequest) (*google.Photo, error)
}

// Services bundles the use cases served over HTTP. Any of them may be nil;
// the matching endpoints then answer with a misconfiguration error.
type Services struct {
	LocalWine  *usecase.LocalWineService
	WineSearch *usecase.WineSearchService
	Sommelier  *usecase.SommelierService
	Photos     PhotoFetcher
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	localWine  *usecase.LocalWineService
	wineSearch *usecase.WineSearchService
	sommelier  *usecase.SommelierService
	photos     PhotoFetcher
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services) *Handler {
	return &Handler{
		localWine:  services.LocalWine,
		wineSearch: services.WineSearch,
		sommelier:  services.Sommelier,
		photos:     services.Photos,
		logger:     zap.L().Named("http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// LocalWine handles nearby wine-menu discovery requests
func (h *Handler) LocalWine(c *gin.Context) {
	if h.localWine == nil {
		h.notConfigured(c, "local wine discovery")
		return
	}

	q := usecase.LocalWineQuery{
		Zip:       strings.TrimSpace(c.Query("zip")),
		Latitude:  coordinateParam(c, "latitude"),
		Longitude: coordinateParam(c, "longitude"),
		Radius:    c.Query("radius"),
	}

	result, err := h.localWine.Discover(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// coordinateParam returns nil when the parameter is absent and NaN when it
// is present but not a number, so the service can tell the two apart
func coordinateParam(c *gin.Context, name string) *float64 {
	raw, ok := c.GetQuery(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	v, valid := usecase.ParseCoordinate(raw)
	if !valid {
		v = math.NaN()
	}
	return &v
}

// WineSearch handles retail aggregation requests
func (h *Handler) WineSearch(c *gin.Context) {
	if h.wineSearch == nil {
		h.notConfigured(c, "wine search")
		return
	}

	var req usecase.WineSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	result, err := h.wineSearch.Search(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PlacesPhoto proxies a place photo so the provider key never reaches clients
func (h *Handler) PlacesPhoto(c *gin.Context) {
	if h.photos == nil {
		h.notConfigured(c, "photo proxy")
		return
	}

	pr := google.PhotoRequest{
		Name:      c.Query("name"),
		Reference: c.Query("ref"),
		Width:     google.ParsePhotoSize(c.Query("w")),
		Height:    google.ParsePhotoSize(c.Query("h")),
	}

	photo, err := h.photos.FetchPhoto(c.Request.Context(), pr)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing photo name or ref"})
		case errors.Is(err, domain.ErrMissingAPIKey):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Places API key is not configured"})
		case errors.Is(err, domain.ErrUpstream):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Photo fetch failed"})
		default:
			h.respondError(c, err)
		}
		return
	}

	c.Header("Cache-Control", photoCacheControl)
	c.Data(http.StatusOK, photo.ContentType, photo.Body)
}

type extractRequest struct {
	ImageDataURL string `json:"imageDataUrl" binding:"required"`
}

// Extract reads the wines off a photographed wine list
func (h *Handler) Extract(c *gin.Context) {
	if h.sommelier == nil {
		h.notConfigured(c, "wine list extraction")
		return
	}

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imageDataUrl is required"})
		return
	}

	wines, err := h.sommelier.Extract(c.Request.Context(), req.ImageDataURL)
	if err != nil {
		h.respondSommelierError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wines": wines})
}

// Pair ranks the posted wines against a meal
func (h *Handler) Pair(c *gin.Context) {
	if h.sommelier == nil {
		h.notConfigured(c, "pairing")
		return
	}

	var req usecase.PairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	result, err := h.sommelier.Pair(c.Request.Context(), req)
	if err != nil {
		h.respondSommelierError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Ask answers a free-form sommelier question
func (h *Handler) Ask(c *gin.Context) {
	if h.sommelier == nil {
		h.notConfigured(c, "sommelier chat")
		return
	}

	var req usecase.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	answer, err := h.sommelier.Ask(c.Request.Context(), req)
	if err != nil {
		h.respondSommelierError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// respondSommelierError answers model and parse failures with 400, as the
// sommelier endpoints report every failure to the caller
func (h *Handler) respondSommelierError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrMisconfigured) || errors.Is(err, domain.ErrInvalidRequest) {
		h.respondError(c, err)
		return
	}
	h.logger.Warn("sommelier request failed",
		zap.String("request_id", requestID(c)),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusBadRequest, gin.H{"error": publicMessage(err)})
}

// respondError maps service errors onto status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": publicMessage(err, domain.ErrInvalidRequest)})
	case errors.Is(err, domain.ErrMisconfigured), errors.Is(err, domain.ErrMissingAPIKey):
		h.logger.Error("misconfigured", zap.String("request_id", requestID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": publicMessage(err, domain.ErrMisconfigured, domain.ErrMissingAPIKey)})
	default:
		h.logger.Error("request failed",
			zap.String("request_id", requestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorBody})
	}
}

func (h *Handler) notConfigured(c *gin.Context, feature string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": feature + " is not configured"})
}

// publicMessage strips the sentinel suffix from a wrapped error so only the
// caller-facing context remains
func publicMessage(err error, sentinels ...error) string {
	msg := err.Error()
	for _, s := range sentinels {
		msg = strings.TrimSuffix(msg, ": "+s.Error())
	}
	return msg
}
