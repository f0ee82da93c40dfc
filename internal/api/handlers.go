package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/aidmatch/internal/model"
)

const reviewerCheckTimeout = 2 * time.Second

type duplicateIdentityRequest struct {
	Key      string                  `json:"key"` // The subject's own registry key, never reported as a duplicate
	IDNumber string                  `json:"id_number" binding:"required"`
	FullName string                  `json:"full_name" binding:"required"`
	Registry *[]model.IdentityRecord `json:"registry"` // Omitted: use the loaded registry
}

type costOutlierRequest struct {
	Cost             *float64           `json:"cost" binding:"required"`
	Category         string             `json:"category" binding:"required"`
	RegionalAverages map[string]float64 `json:"regional_averages"` // Omitted: use configured averages
}

type suggestionsRequest struct {
	model.MatchRequest
	Providers *[]model.Provider `json:"providers"` // Omitted: use the loaded provider list
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.pipeline.Snapshot()
	reviewer := s.pipeline.ReviewerName()
	body := gin.H{
		"status":           "healthy",
		"version":          s.version,
		"uptime":           time.Since(s.started).Round(time.Second).String(),
		"providers":        len(snap.Providers),
		"registry_records": len(snap.Registry),
		"reviewer":         reviewer,
	}

	// Reviewer outages never fail the health check
	if reviewer != "" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), reviewerCheckTimeout)
		defer cancel()
		body["reviewer_available"] = s.pipeline.ReviewerAvailable(ctx)
	}

	c.JSON(http.StatusOK, body)
}

func (s *Server) handleVerify(c *gin.Context) {
	var subject model.Subject
	if err := c.ShouldBindJSON(&subject); err != nil {
		s.badRequest(c, err)
		return
	}

	result, err := s.pipeline.Verify(c.Request.Context(), subject)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleDuplicateIdentity(c *gin.Context) {
	var req duplicateIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	var registry []model.IdentityRecord
	if req.Registry != nil {
		registry = *req.Registry
		if registry == nil {
			registry = []model.IdentityRecord{}
		}
	}
	c.JSON(http.StatusOK, s.pipeline.CheckDuplicateIdentity(req.Key, req.IDNumber, req.FullName, registry))
}

func (s *Server) handleCostOutlier(c *gin.Context) {
	var req costOutlierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	result, err := s.pipeline.CheckCostOutlier(*req.Cost, req.Category, req.RegionalAverages)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSuggestions(c *gin.Context) {
	var req suggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	var providers []model.Provider
	if req.Providers != nil {
		providers = *req.Providers
		if providers == nil {
			providers = []model.Provider{}
		}
	}

	suggestions, err := s.pipeline.Suggest(c.Request.Context(), req.MatchRequest, providers)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (s *Server) handleStatusProjection(c *gin.Context) {
	var fields model.StatusFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		s.badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, s.pipeline.ProjectStatus(fields))
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      "malformed request: " + err.Error(),
		"request_id": c.GetString(requestIDKey),
	})
}

// fail maps caller-input errors to 422 and everything else to 500
func (s *Server) fail(c *gin.Context, err error) {
	body := gin.H{
		"error":      err.Error(),
		"request_id": c.GetString(requestIDKey),
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		body["field"] = ve.Field
	}

	if model.IsInputError(err) {
		c.JSON(http.StatusUnprocessableEntity, body)
		return
	}
	s.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("Unexpected pipeline error")
	c.JSON(http.StatusInternalServerError, body)
}
