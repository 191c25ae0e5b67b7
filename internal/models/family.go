package models

import "time"

// FamilyRole describes the membership level of a user inside a family.
type FamilyRole string

const (
	// FamilyRoleOwner is granted to the user who registered the family's first pet.
	FamilyRoleOwner FamilyRole = "OWNER"
	// FamilyRoleMember is granted through an approved share request.
	FamilyRoleMember FamilyRole = "MEMBER"
)

// Family groups users that share visibility and control over pets.
type Family struct {
	BaseModel

	FamilyName string `gorm:"size:100;not null" json:"family_name"`
}

// FamilyMember is the unit of authorization: a (family, user) pair.
type FamilyMember struct {
	BaseModel

	FamilyID string     `gorm:"size:36;not null;uniqueIndex:idx_family_member,priority:1;index" json:"family_id"`
	UserID   string     `gorm:"size:36;not null;uniqueIndex:idx_family_member,priority:2;index" json:"user_id"`
	Role     FamilyRole `gorm:"size:16;not null;default:'MEMBER'" json:"role"`
	JoinedAt time.Time  `json:"joined_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
