package models

import "math"

// Recommendation sources.
const (
	RecommendationByLLM    = "LLM"
	RecommendationByManual = "MANUAL"
)

// PetWalkRecommendation holds the min/recommended/max weekly walk volume for a pet.
type PetWalkRecommendation struct {
	BaseModel

	PetID string `gorm:"size:36;not null;uniqueIndex" json:"pet_id"`

	MinWalks      int     `gorm:"not null" json:"min_walks"`
	MinMinutes    int     `gorm:"not null" json:"min_minutes"`
	MinDistanceKm float64 `gorm:"not null" json:"min_distance_km"`

	RecommendedWalks      int     `gorm:"not null" json:"recommended_walks"`
	RecommendedMinutes    int     `gorm:"not null" json:"recommended_minutes"`
	RecommendedDistanceKm float64 `gorm:"not null" json:"recommended_distance_km"`

	MaxWalks      int     `gorm:"not null" json:"max_walks"`
	MaxMinutes    int     `gorm:"not null" json:"max_minutes"`
	MaxDistanceKm float64 `gorm:"not null" json:"max_distance_km"`

	GeneratedBy string `gorm:"size:50;default:'LLM'" json:"generated_by"`
}

// PerWalk splits the recommended weekly volume across the recommended walk count.
// Minutes use integer division; distance is rounded to two decimals.
func (r *PetWalkRecommendation) PerWalk() (minutes int, distanceKm float64) {
	if r == nil || r.RecommendedWalks <= 0 {
		return 0, 0
	}
	minutes = r.RecommendedMinutes / r.RecommendedWalks
	distanceKm = math.Round(r.RecommendedDistanceKm/float64(r.RecommendedWalks)*100) / 100
	return minutes, distanceKm
}

// PetWalkGoal is the owner-chosen weekly target for a pet.
type PetWalkGoal struct {
	BaseModel

	PetID            string  `gorm:"size:36;not null;uniqueIndex" json:"pet_id"`
	TargetWalks      int     `gorm:"not null" json:"target_walks"`
	TargetMinutes    int     `gorm:"not null" json:"target_minutes"`
	TargetDistanceKm float64 `gorm:"not null" json:"target_distance_km"`
}

// ExceedsRecommendation reports whether the goal is more than twice the
// recommended volume or more than one and a half times the maximum.
func (g *PetWalkGoal) ExceedsRecommendation(rec *PetWalkRecommendation) bool {
	if g == nil || rec == nil {
		return false
	}
	return float64(g.TargetWalks) > float64(rec.RecommendedWalks)*2 ||
		float64(g.TargetMinutes) > float64(rec.RecommendedMinutes)*2 ||
		g.TargetDistanceKm > rec.RecommendedDistanceKm*2 ||
		float64(g.TargetWalks) > float64(rec.MaxWalks)*1.5 ||
		float64(g.TargetMinutes) > float64(rec.MaxMinutes)*1.5 ||
		g.TargetDistanceKm > rec.MaxDistanceKm*1.5
}
