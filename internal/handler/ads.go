package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Dev-Aaron27/fireboard/internal/metrics"
	"github.com/Dev-Aaron27/fireboard/internal/models"
	"github.com/Dev-Aaron27/fireboard/internal/repository"
)

type AdHandler interface {
	SubmitAd(c *gin.Context)
	ListAds(c *gin.Context)
}

type adHandler struct {
	adRepo repository.AdRepository
	logger *zap.Logger
}

func NewAdHandler(adRepo repository.AdRepository, logger *zap.Logger) AdHandler {
	return &adHandler{adRepo: adRepo, logger: logger}
}

// submitAdRequest uses pointer fields so absent keys can be told apart from
// zero values when reporting which required fields are missing.
type submitAdRequest struct {
	ServerName *string `json:"server_name"`
	Category   *string `json:"category"`
	Content    *string `json:"content"`
	Invite     *string `json:"invite"`
	Timestamp  *string `json:"timestamp"`
	AuthorID   *int64  `json:"author_id"`
}

func (r *submitAdRequest) missingFields() []string {
	var missing []string
	if r.AuthorID == nil {
		missing = append(missing, "author_id")
	}
	if r.Timestamp == nil || *r.Timestamp == "" {
		missing = append(missing, "timestamp")
	}
	if r.Content == nil || *r.Content == "" {
		missing = append(missing, "content")
	}
	if r.ServerName == nil || *r.ServerName == "" {
		missing = append(missing, "server_name")
	}
	if r.Category == nil || *r.Category == "" {
		missing = append(missing, "category")
	}
	return missing
}

// SubmitAd handles POST /ads.
func (h *adHandler) SubmitAd(c *gin.Context) {
	var req submitAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind JSON for ad submission", zap.Error(err))
		metrics.AdsIngested.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	if missing := req.missingFields(); len(missing) > 0 {
		metrics.AdsIngested.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")),
		})
		return
	}

	ts, err := parseTimestamp(*req.Timestamp)
	if err != nil {
		h.logger.Error("Invalid timestamp in ad submission", zap.String("timestamp", *req.Timestamp), zap.Error(err))
		metrics.AdsIngested.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid timestamp: %s", *req.Timestamp)})
		return
	}

	ad := &models.Ad{
		ServerName: *req.ServerName,
		Category:   *req.Category,
		Content:    *req.Content,
		Invite:     models.NoInvite,
		Timestamp:  ts,
		AuthorID:   *req.AuthorID,
	}
	if req.Invite != nil && *req.Invite != "" {
		ad.Invite = *req.Invite
	}

	duplicate, err := h.adRepo.SaveAd(c.Request.Context(), ad)
	if err != nil {
		h.logger.Error("Failed to save ad",
			zap.Int64("author_id", ad.AuthorID),
			zap.Time("timestamp", ad.Timestamp),
			zap.Error(err))
		metrics.AdsIngested.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store ad"})
		return
	}

	if duplicate {
		metrics.AdsIngested.WithLabelValues("duplicate").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	h.logger.Info("Stored new ad",
		zap.Int64("author_id", ad.AuthorID),
		zap.String("category", ad.Category))
	metrics.AdsIngested.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ListAds handles GET /ads. The result is a fresh snapshot ordered by
// timestamp descending.
func (h *adHandler) ListAds(c *gin.Context) {
	ads, err := h.adRepo.ListAds(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list ads", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ads"})
		return
	}

	metrics.AdsListed.Inc()
	c.JSON(http.StatusOK, ads)
}

// parseTimestamp accepts RFC 3339 (what the bot sends) and the space-separated
// variant older dashboard clients used.
func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse("2006-01-02 15:04:05.999999-07:00", s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
