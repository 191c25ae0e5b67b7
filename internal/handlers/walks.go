package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/services"
	appErrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/response"
)

// WalkHandler exposes walk sessions and their GPS traces.
type WalkHandler struct {
	service *services.WalkService
}

// NewWalkHandler constructs a walk handler.
func NewWalkHandler(service *services.WalkService) *WalkHandler {
	return &WalkHandler{service: service}
}

type startWalkRequest struct {
	PetID         string     `json:"pet_id" validate:"required"`
	StartTime     *time.Time `json:"start_time"`
	WeatherStatus string     `json:"weather_status" validate:"max=50"`
	WeatherTempC  *float64   `json:"weather_temp_c"`
	Latitude      *float64   `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude     *float64   `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

type trackPointRequest struct {
	Latitude  float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64   `json:"longitude" validate:"gte=-180,lte=180"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

type trackWalkRequest struct {
	Points []trackPointRequest `json:"points" validate:"dive"`
}

type endWalkRequest struct {
	EndTime     *time.Time `json:"end_time"`
	DurationMin *int       `json:"duration_min" validate:"omitempty,gte=0"`
	DistanceKm  *float64   `json:"distance_km" validate:"omitempty,gte=0"`
	Calories    *float64   `json:"calories" validate:"omitempty,gte=0"`
	LastLat     *float64   `json:"last_lat" validate:"omitempty,gte=-90,lte=90"`
	LastLng     *float64   `json:"last_lng" validate:"omitempty,gte=-180,lte=180"`
}

// Start opens a walk for a pet the caller belongs to.
func (h *WalkHandler) Start(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req startWalkRequest
	if !bindAndValidate(c, &req) {
		return
	}

	walk, err := h.service.Start(requestContext(c), userID, services.StartWalkInput{
		PetID:         req.PetID,
		StartTime:     req.StartTime,
		WeatherStatus: req.WeatherStatus,
		WeatherTempC:  req.WeatherTempC,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"walk_id": walk.ID, "walk": walk})
}

// Track appends GPS points to the caller's ongoing walk.
func (h *WalkHandler) Track(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	walkID, ok := pathParam(c, "id", appErrors.ErrWalkNotFound)
	if !ok {
		return
	}

	var req trackWalkRequest
	if !bindAndValidate(c, &req) {
		return
	}

	points := make([]services.TrackPoint, 0, len(req.Points))
	for _, p := range req.Points {
		points = append(points, services.TrackPoint{Latitude: p.Latitude, Longitude: p.Longitude, Timestamp: p.Timestamp})
	}

	saved, err := h.service.Track(requestContext(c), userID, walkID, points)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"walk_id": walkID, "saved_count": saved})
}

// End closes the caller's ongoing walk.
func (h *WalkHandler) End(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	walkID, ok := pathParam(c, "id", appErrors.ErrWalkNotFound)
	if !ok {
		return
	}

	var req endWalkRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	walk, err := h.service.End(requestContext(c), userID, walkID, services.EndWalkInput{
		EndTime:     req.EndTime,
		DurationMin: req.DurationMin,
		DistanceKm:  req.DistanceKm,
		Calories:    req.Calories,
		LastLat:     req.LastLat,
		LastLng:     req.LastLng,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"walk": walk})
}

// Get returns a walk with its tracking points.
func (h *WalkHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	walkID, ok := pathParam(c, "id", appErrors.ErrWalkNotFound)
	if !ok {
		return
	}

	walk, err := h.service.Get(requestContext(c), userID, walkID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"walk": walk})
}

// Today summarises the walks a pet started today (KST).
func (h *WalkHandler) Today(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	today, err := h.service.Today(requestContext(c), userID, c.Query("pet_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"today": today})
}
