package advice

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pawwalk/pawwalk/pkg/validator"
)

// StripCodeFence removes ```json / ``` wrappers models like to add around JSON.
func StripCodeFence(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// Parse decodes raw generator output into out and validates its required fields.
func Parse(raw string, out any) error {
	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return fmt.Errorf("advice: empty document")
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("advice: decode document: %w", err)
	}
	if err := validator.ValidateStruct(out); err != nil {
		return fmt.Errorf("advice: invalid document: %w", err)
	}
	return nil
}

// HealthAdvice is the document produced for health feedback.
type HealthAdvice struct {
	Title   string   `json:"title" validate:"required"`
	Message string   `json:"message" validate:"required"`
	Tags    []string `json:"tags"`
}

// TimeSlot is a suggested walking window.
type TimeSlot struct {
	Label     string `json:"label"`
	StartTime string `json:"start_time" validate:"required,clocktime"`
	EndTime   string `json:"end_time" validate:"required,clocktime"`
}

// WeatherAdvice is the document produced for weather based walk suggestions.
type WeatherAdvice struct {
	Title                string     `json:"title" validate:"required"`
	Message              string     `json:"message" validate:"required"`
	SuggestedTimeSlots   []TimeSlot `json:"suggested_time_slots" validate:"dive"`
	SuggestedDurationMin int        `json:"suggested_duration_min" validate:"gte=0"`
	Notes                []string   `json:"notes"`
}

// WalkAdvice is the document produced for walk recommendation reminders.
type WalkAdvice struct {
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
}
