package models

import "time"

// Walk is a single walk session. EndTime stays nil while the walk is ongoing.
type Walk struct {
	BaseModel

	PetID         string     `gorm:"size:36;not null;index" json:"pet_id"`
	UserID        string     `gorm:"size:36;not null;index" json:"user_id"`
	StartTime     time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	DurationMin   *int       `json:"duration_min"`
	DistanceKm    *float64   `json:"distance_km"`
	Calories      *float64   `json:"calories"`
	WeatherStatus string     `gorm:"size:50" json:"weather_status,omitempty"`
	WeatherTempC  *float64   `json:"weather_temp_c,omitempty"`
	// LastLat and LastLng feed the scheduled weather recommendation.
	LastLat *float64 `json:"last_lat,omitempty"`
	LastLng *float64 `json:"last_lng,omitempty"`

	Points []WalkTrackingPoint `gorm:"foreignKey:WalkID;constraint:OnDelete:CASCADE" json:"points,omitempty"`
}

// Ongoing reports whether the walk has not been ended yet.
func (w *Walk) Ongoing() bool {
	return w != nil && w.EndTime == nil
}

// WalkTrackingPoint is a raw GPS sample recorded during a walk.
type WalkTrackingPoint struct {
	RecordModel

	WalkID    string    `gorm:"size:36;not null;index" json:"walk_id"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

// Photo is an image taken during a walk and stored in object storage.
type Photo struct {
	RecordModel

	WalkID     string `gorm:"size:36;not null;index" json:"walk_id"`
	PetID      string `gorm:"size:36;not null;index" json:"pet_id"`
	UploadedBy string `gorm:"size:36;not null" json:"uploaded_by"`
	ImageURL   string `gorm:"type:text;not null" json:"image_url"`
	ObjectKey  string `gorm:"type:text" json:"-"`
	Caption    string `gorm:"size:255" json:"caption,omitempty"`
}
