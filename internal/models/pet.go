package models

import "gorm.io/gorm"

// Pet belongs to exactly one family. PetSearchID is the public code other users
// enter to request access. Deleted pets are soft deleted so share requests and
// notifications that reference them keep resolving.
type Pet struct {
	BaseModel

	FamilyID    string         `gorm:"size:36;not null;index" json:"family_id"`
	OwnerID     string         `gorm:"size:36;not null;index" json:"owner_id"`
	Name        string         `gorm:"size:50;not null" json:"name"`
	Breed       string         `gorm:"size:50" json:"breed,omitempty"`
	AgeYears    int            `json:"age"`
	WeightKg    float64        `json:"weight"`
	Gender      string         `gorm:"size:8" json:"gender,omitempty"`
	ImageURL    string         `gorm:"type:text" json:"image_url,omitempty"`
	PetSearchID string         `gorm:"size:8;uniqueIndex;not null" json:"pet_search_id"`
	Neutered    *bool          `json:"neutered,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Family      *Family        `gorm:"foreignKey:FamilyID" json:"-"`
	Owner       *User          `gorm:"foreignKey:OwnerID" json:"-"`
}
