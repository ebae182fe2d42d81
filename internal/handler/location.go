// Package handler exposes the engine to its downstream consumers (the
// attendance-submission workflow and the monitoring UI) over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldmark/beacon/internal/models"
	"github.com/fieldmark/beacon/internal/service"
)

type locationService interface {
	ResolveBestEffort(ctx context.Context) service.Resolution
	ResolveReading(ctx context.Context, reading models.LocationReading) (service.Resolution, error)
	Validate(loc models.ResolvedLocation, zones []models.GeofenceZone) models.ValidationResult
}

type siteRepository interface {
	FetchActiveSites(ctx context.Context) ([]models.GeofenceZone, error)
	DeactivateSite(ctx context.Context, label string) error
}

// resolveRequest is the optional client-captured reading. When latitude and
// longitude are present the engine resolves that coordinate directly;
// otherwise it runs the full best-effort fallback chain.
type resolveRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
	Altitude  float64  `json:"altitude"`
	Speed     float64  `json:"speed"`
	Heading   float64  `json:"heading"`
	Timestamp int64    `json:"timestamp"` // unix seconds, zero means "now"
}

type resolveResponse struct {
	Location   models.ResolvedLocation `json:"location"`
	Method     service.Method          `json:"method"`
	Warnings   []string                `json:"warnings"`
	Validation models.ValidationResult `json:"validation"`
}

// LocationHandler serves the resolution and site endpoints.
type LocationHandler struct {
	svc   locationService
	sites siteRepository
	log   *slog.Logger
}

// NewLocationHandler creates the handler over the engine service and the
// authorized-site repository.
func NewLocationHandler(svc locationService, sites siteRepository, log *slog.Logger) *LocationHandler {
	return &LocationHandler{svc: svc, sites: sites, log: log}
}

// Register mounts the endpoints on the given route group.
func (h *LocationHandler) Register(r *gin.RouterGroup) {
	r.POST("/location/resolve", h.Resolve)
	r.GET("/sites", h.GetSites)
	r.DELETE("/sites/:label", h.DeactivateSite)
}

// Resolve runs a resolution (client-supplied reading or full fallback chain)
// and validates the result against the active sites in one call.
func (h *LocationHandler) Resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()

	var resolution service.Resolution
	if req.Latitude != nil && req.Longitude != nil {
		reading := models.LocationReading{
			Coordinates: models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude},
			Accuracy:    req.Accuracy,
			Altitude:    req.Altitude,
			Speed:       req.Speed,
			Heading:     req.Heading,
		}
		if req.Timestamp > 0 {
			reading.Timestamp = time.Unix(req.Timestamp, 0)
		}

		var err error
		resolution, err = h.svc.ResolveReading(ctx, reading)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else {
		resolution = h.svc.ResolveBestEffort(ctx)
	}

	zones, err := h.sites.FetchActiveSites(ctx)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to load authorized sites", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load authorized sites"})
		return
	}

	c.JSON(http.StatusOK, resolveResponse{
		Location:   resolution.Location,
		Method:     resolution.Method,
		Warnings:   resolution.Warnings,
		Validation: h.svc.Validate(resolution.Location, zones),
	})
}

// DeactivateSite retires an authorized site from the active zone set without
// deleting its record.
func (h *LocationHandler) DeactivateSite(c *gin.Context) {
	ctx := c.Request.Context()
	label := c.Param("label")

	if err := h.sites.DeactivateSite(ctx, label); err != nil {
		h.log.ErrorContext(ctx, "Failed to deactivate site", "label", label, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate site"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSites lists the active authorized sites.
func (h *LocationHandler) GetSites(c *gin.Context) {
	zones, err := h.sites.FetchActiveSites(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load authorized sites"})
		return
	}

	c.JSON(http.StatusOK, zones)
}
