package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/zone-tracker/module/core/domain"
	"github.com/nandanugg/zone-tracker/module/core/internal/host"
	"github.com/nandanugg/zone-tracker/module/core/service"
)

type scheduler interface {
	Trigger(ctx context.Context) (*domain.StateUpdate, error)
	Status() service.Status
}

type hostRuntime interface {
	SetConfig(cfg domain.TrackerConfig) error
	Zones(ctx context.Context) ([]domain.Zone, error)
}

type zoneResolver interface {
	Resolve(point domain.GeoPoint, zones []domain.Zone) string
	Evaluate(point domain.GeoPoint, zones []domain.Zone) []domain.ZoneEvaluation
}

type configRequest struct {
	Entity       string `json:"entity"`
	UserAgent    string `json:"user_agent"`
	ScanInterval int    `json:"scan_interval"`
}

type resolveResponse struct {
	State       string                  `json:"state"`
	Evaluations []domain.ZoneEvaluation `json:"evaluations"`
}

type TrackerHandler struct {
	scheduler scheduler
	runtime   hostRuntime
	resolver  zoneResolver
}

func NewTrackerHandler(s scheduler, rt hostRuntime, resolver zoneResolver) *TrackerHandler {
	return &TrackerHandler{scheduler: s, runtime: rt, resolver: resolver}
}

func (h *TrackerHandler) Register(r *gin.RouterGroup) {
	r.PUT("/config", h.SetConfig)
	r.POST("/trigger", h.Trigger)
	r.GET("/status", h.GetStatus)
	r.GET("/resolve", h.Resolve)
}

func (h *TrackerHandler) SetConfig(c *gin.Context) {
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config body"})
		return
	}

	cfg := domain.TrackerConfig{
		TargetEntity:    req.Entity,
		UserAgentFilter: req.UserAgent,
		ScanInterval:    time.Duration(req.ScanInterval) * time.Second,
	}

	err := h.runtime.SetConfig(cfg)
	switch {
	case err == nil:
	case errors.Is(err, host.ErrConfigImmutable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, req)
}

func (h *TrackerHandler) Trigger(c *gin.Context) {
	update, err := h.scheduler.Trigger(c.Request.Context())
	switch {
	case err == nil:
	case errors.Is(err, service.ErrCycleInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrSchedulerClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if update == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, update)
}

func (h *TrackerHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Status())
}

func (h *TrackerHandler) Resolve(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat parameter"})
		return
	}

	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lon parameter"})
		return
	}

	zones, err := h.runtime.Zones(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "zones unavailable"})
		return
	}

	point := domain.GeoPoint{Lat: lat, Lon: lon}
	c.JSON(http.StatusOK, resolveResponse{
		State:       h.resolver.Resolve(point, zones),
		Evaluations: h.resolver.Evaluate(point, zones),
	})
}
