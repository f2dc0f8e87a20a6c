package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"nexlyon/server/config"
	"nexlyon/server/internal/geometry"
	"nexlyon/server/internal/models"
	"nexlyon/server/internal/pipeline"
)

// Pipeline is the run lifecycle exposed over HTTP.
type Pipeline interface {
	Start(ctx context.Context) (string, error)
	Status() pipeline.State
	Data() (*pipeline.Result, error)
	ReportFile() (string, error)
	Reset() error
}

type HistoryStore interface {
	GetPriceHistory(propertyID int64) ([]models.PricePoint, error)
	GetAnalysisHistory(propertyID int64) ([]models.AnalysisRecord, error)
}

type Handler struct {
	pipeline Pipeline
	store    HistoryStore
	market   *config.MarketData
	logger   *logrus.Logger

	// runs started over HTTP outlive the request, so they use this context
	baseCtx context.Context
	now     func() time.Time
}

type PropertyHistory struct {
	PropertyID   int64                   `json:"property_id"`
	PriceHistory []models.PricePoint     `json:"price_history"`
	Analyses     []models.AnalysisRecord `json:"analyses"`
}

func NewHandler(ctx context.Context, p Pipeline, store HistoryStore, market *config.MarketData, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if market == nil {
		market = config.DefaultMarketData()
	}

	return &Handler{
		pipeline: p,
		store:    store,
		market:   market,
		logger:   logger,
		baseCtx:  ctx,
		now:      time.Now,
	}
}

func (h *Handler) RunPipeline(c *gin.Context) {
	runID, err := h.pipeline.Start(h.baseCtx)
	if errors.Is(err, pipeline.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": "Pipeline already running"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to start pipeline")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start pipeline"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Pipeline started", "run_id": runID})
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.pipeline.Status())
}

func (h *Handler) GetData(c *gin.Context) {
	result, err := h.pipeline.Data()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data available"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) DownloadReport(c *gin.Context) {
	path, err := h.pipeline.ReportFile()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No report available"})
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

func (h *Handler) Reset(c *gin.Context) {
	if err := h.pipeline.Reset(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Pipeline already running"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reset"})
}

// GetPropertyHistory returns the recorded prices and past analyses of a property
func (h *Handler) GetPropertyHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	prices, err := h.store.GetPriceHistory(id)
	if err != nil {
		h.logger.WithError(err).WithField("property_id", id).Error("Failed to get price history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get price history"})
		return
	}

	analyses, err := h.store.GetAnalysisHistory(id)
	if err != nil {
		h.logger.WithError(err).WithField("property_id", id).Error("Failed to get analysis history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get analysis history"})
		return
	}

	if len(prices) == 0 && len(analyses) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	c.JSON(http.StatusOK, PropertyHistory{PropertyID: id, PriceHistory: prices, Analyses: analyses})
}

// GetDistricts returns the arrondissement map layer. Counts are zero until a
// run has completed.
func (h *Handler) GetDistricts(c *gin.Context) {
	var summaries []models.DistrictSummary
	if result, err := h.pipeline.Data(); err == nil {
		summaries = result.Arrondissements
	}

	fc := geometry.DistrictCollection(summaries, h.market)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, geometry.DistrictDocument(fc, h.now()))
}
