package models

import (
	"strings"
	"time"
)

// ShareStatus is the state of a PetShareRequest. PENDING is the only non-terminal state.
type ShareStatus string

const (
	ShareStatusPending  ShareStatus = "PENDING"
	ShareStatusApproved ShareStatus = "APPROVED"
	ShareStatusRejected ShareStatus = "REJECTED"
)

// ParseShareDecision accepts only the terminal states a pending request can move to.
func ParseShareDecision(raw string) (ShareStatus, bool) {
	switch ShareStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case ShareStatusApproved:
		return ShareStatusApproved, true
	case ShareStatusRejected:
		return ShareStatusRejected, true
	default:
		return "", false
	}
}

// PetShareRequest is a non-member's request to join a pet's family. Rows are
// never deleted so they double as an audit trail.
type PetShareRequest struct {
	BaseModel

	PetID       string      `gorm:"size:36;not null;index:idx_share_pet_requester,priority:1" json:"pet_id"`
	RequesterID string      `gorm:"size:36;not null;index:idx_share_pet_requester,priority:2;index" json:"requester_id"`
	Status      ShareStatus `gorm:"size:16;not null;default:'PENDING';index" json:"status"`
	Message     string      `gorm:"type:text" json:"message,omitempty"`
	RespondedAt *time.Time  `json:"responded_at,omitempty"`

	Pet       *Pet  `gorm:"foreignKey:PetID" json:"pet,omitempty"`
	Requester *User `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE" json:"requester,omitempty"`
}

// IsPending reports whether the request can still be approved or rejected.
func (r *PetShareRequest) IsPending() bool {
	return r != nil && r.Status == ShareStatusPending
}
