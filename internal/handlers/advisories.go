package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/services"
	appErrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/response"
)

const invalidTriggerReason = "trigger_type must be manual or scheduled"

// AdvisoryHandler triggers generated health, weather and walk advisories.
type AdvisoryHandler struct {
	health  *services.HealthAdvisor
	weather *services.WeatherAdvisor
	walks   *services.WalkAdvisor
}

// NewAdvisoryHandler constructs an advisory handler.
func NewAdvisoryHandler(health *services.HealthAdvisor, weather *services.WeatherAdvisor, walks *services.WalkAdvisor) *AdvisoryHandler {
	return &AdvisoryHandler{health: health, weather: weather, walks: walks}
}

type healthAdviceRequest struct {
	PetID       string `json:"pet_id" validate:"required"`
	TriggerType string `json:"trigger_type"`
}

type weatherAdviceRequest struct {
	PetID       string   `json:"pet_id" validate:"required"`
	TriggerType string   `json:"trigger_type"`
	Lat         *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng         *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
}

type walkAdviceRequest struct {
	PetID                string   `json:"pet_id" validate:"required"`
	TriggerType          string   `json:"trigger_type"`
	Lat                  *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng                  *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	WeatherStatus        string   `json:"weather_status" validate:"max=50"`
	WeatherTempC         *float64 `json:"weather_temp_c"`
	TodayWalkCount       int      `json:"today_walk_count" validate:"gte=0"`
	TodayTotalDistanceKm float64  `json:"today_total_distance_km" validate:"gte=0"`
}

// Health generates health feedback for a pet.
func (h *AdvisoryHandler) Health(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req healthAdviceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	trigger, ok := services.ParseTrigger(req.TriggerType)
	if !ok {
		response.Error(c, appErrors.ErrHealthInvalidTrigger)
		return
	}

	result, err := h.health.Advise(requestContext(c), services.HealthAdviceRequest{
		PetID:   req.PetID,
		ActorID: userID,
		Trigger: trigger,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"notification_id":     result.Notification.ID,
		"title":               result.Advice.Title,
		"message":             result.Advice.Message,
		"tags":                result.Advice.Tags,
		"weekly_walk_minutes": result.WeeklyWalkMinutes,
		"weekly_walk_count":   result.WeeklyWalkCount,
		"recommended_info":    result.RecommendedInfo,
		"broadcast":           result.Broadcast,
	})
}

// Weather generates a weather-based walk suggestion for a pet.
func (h *AdvisoryHandler) Weather(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req weatherAdviceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	trigger, ok := services.ParseTrigger(req.TriggerType)
	if !ok {
		response.Error(c, appErrors.ErrWeatherInvalidInput.WithMessage(invalidTriggerReason))
		return
	}

	result, err := h.weather.Advise(requestContext(c), services.WeatherAdviceRequest{
		PetID:     req.PetID,
		ActorID:   userID,
		Trigger:   trigger,
		Latitude:  req.Lat,
		Longitude: req.Lng,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"notification_id":  result.NotificationID,
		"title":            result.Title,
		"message":          result.Message,
		"weather":          result.Weather,
		"recommendation":   result.Recommendation,
		"weekly_minutes":   result.WeeklyMinutes,
		"recommended_info": result.RecommendedInfo,
		"broadcast":        result.Broadcast,
	})
}

// WalkRecommendation generates a walk reminder from the stored recommendation.
func (h *AdvisoryHandler) WalkRecommendation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req walkAdviceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	trigger, ok := services.ParseTrigger(req.TriggerType)
	if !ok {
		response.Error(c, appErrors.ErrWalkRecInvalidInput.WithMessage(invalidTriggerReason))
		return
	}

	result, err := h.walks.Advise(requestContext(c), services.WalkAdviceRequest{
		PetID:                req.PetID,
		ActorID:              userID,
		Trigger:              trigger,
		Latitude:             req.Lat,
		Longitude:            req.Lng,
		WeatherStatus:        req.WeatherStatus,
		WeatherTempC:         req.WeatherTempC,
		TodayWalkCount:       req.TodayWalkCount,
		TodayTotalDistanceKm: req.TodayTotalDistanceKm,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"notification_id": result.Notification.ID,
		"title":           result.Advice.Title,
		"message":         result.Advice.Message,
		"recommendation":  result.Recommendation,
		"weekly_activity": result.WeeklyActivity,
		"goal":            result.Goal,
		"broadcast":       result.Broadcast,
	})
}
