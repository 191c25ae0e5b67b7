package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/services"
	appErrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/response"
)

// WalkPlanHandler exposes weekly walk goals and stored recommendations.
type WalkPlanHandler struct {
	service *services.WalkPlanService
}

// NewWalkPlanHandler constructs a walk plan handler.
func NewWalkPlanHandler(service *services.WalkPlanService) *WalkPlanHandler {
	return &WalkPlanHandler{service: service}
}

type walkGoalRequest struct {
	TargetWalks      int     `json:"target_walks"`
	TargetMinutes    int     `json:"target_minutes"`
	TargetDistanceKm float64 `json:"target_distance_km"`
}

type walkRecommendationRequest struct {
	MinWalks              int     `json:"min_walks"`
	MinMinutes            int     `json:"min_minutes"`
	MinDistanceKm         float64 `json:"min_distance_km"`
	RecommendedWalks      int     `json:"recommended_walks"`
	RecommendedMinutes    int     `json:"recommended_minutes"`
	RecommendedDistanceKm float64 `json:"recommended_distance_km"`
	MaxWalks              int     `json:"max_walks"`
	MaxMinutes            int     `json:"max_minutes"`
	MaxDistanceKm         float64 `json:"max_distance_km"`
}

// GetGoal returns the pet's weekly goal.
func (h *WalkPlanHandler) GetGoal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	petID, ok := pathParam(c, "id", appErrors.ErrGoalPetNotFound)
	if !ok {
		return
	}

	goal, err := h.service.GetGoal(requestContext(c), userID, petID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"goal": goal})
}

// PutGoal creates or replaces the pet's weekly goal.
func (h *WalkPlanHandler) PutGoal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	petID, ok := pathParam(c, "id", appErrors.ErrGoalPetNotFound)
	if !ok {
		return
	}

	var req walkGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrGoalNotPositive)
		return
	}

	goal, err := h.service.UpsertGoal(requestContext(c), userID, petID, services.GoalInput{
		TargetWalks:      req.TargetWalks,
		TargetMinutes:    req.TargetMinutes,
		TargetDistanceKm: req.TargetDistanceKm,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"goal": goal})
}

// GetRecommendation returns the stored recommendation with its per-walk split.
func (h *WalkPlanHandler) GetRecommendation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	petID, ok := pathParam(c, "id", appErrors.ErrWalkRecPetNotFound)
	if !ok {
		return
	}

	view, err := h.service.GetRecommendation(requestContext(c), userID, petID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"recommendation": view})
}

// PutRecommendation stores a manually entered recommendation.
func (h *WalkPlanHandler) PutRecommendation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	petID, ok := pathParam(c, "id", appErrors.ErrWalkRecPetNotFound)
	if !ok {
		return
	}

	var req walkRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrWalkRecInvalidInput)
		return
	}

	view, err := h.service.PutRecommendation(requestContext(c), userID, petID, services.RecommendationInput{
		MinWalks:              req.MinWalks,
		MinMinutes:            req.MinMinutes,
		MinDistanceKm:         req.MinDistanceKm,
		RecommendedWalks:      req.RecommendedWalks,
		RecommendedMinutes:    req.RecommendedMinutes,
		RecommendedDistanceKm: req.RecommendedDistanceKm,
		MaxWalks:              req.MaxWalks,
		MaxMinutes:            req.MaxMinutes,
		MaxDistanceKm:         req.MaxDistanceKm,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"recommendation": view})
}
