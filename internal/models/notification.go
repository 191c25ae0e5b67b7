package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationType is the closed set of notification kinds.
type NotificationType string

const (
	NotificationRequest           NotificationType = "REQUEST"
	NotificationInviteAccepted    NotificationType = "INVITE_ACCEPTED"
	NotificationInviteRejected    NotificationType = "INVITE_REJECTED"
	NotificationActivityStart     NotificationType = "ACTIVITY_START"
	NotificationActivityEnd       NotificationType = "ACTIVITY_END"
	NotificationFamilyRoleChanged NotificationType = "FAMILY_ROLE_CHANGED"
	NotificationPetUpdate         NotificationType = "PET_UPDATE"
	NotificationSystemRanking     NotificationType = "SYSTEM_RANKING"
	NotificationSystemWeather     NotificationType = "SYSTEM_WEATHER"
	NotificationSystemReminder    NotificationType = "SYSTEM_REMINDER"
	NotificationSystemHealth      NotificationType = "SYSTEM_HEALTH"
	NotificationSOS               NotificationType = "SOS"
	NotificationSOSResolved       NotificationType = "SOS_RESOLVED"
)

// ParseNotificationType maps a client supplied string onto the closed enum.
// Unknown values are rejected rather than defaulted.
func ParseNotificationType(raw string) (NotificationType, bool) {
	t := NotificationType(strings.ToUpper(strings.TrimSpace(raw)))
	if t.Label() == "" {
		return "", false
	}
	return t, true
}

// Label returns the localized display label, or "" for values outside the enum.
func (t NotificationType) Label() string {
	switch t {
	case NotificationRequest:
		return "승인 요청"
	case NotificationInviteAccepted:
		return "요청 수락"
	case NotificationInviteRejected:
		return "요청 거절"
	case NotificationActivityStart:
		return "산책 시작"
	case NotificationActivityEnd:
		return "산책 종료"
	case NotificationFamilyRoleChanged:
		return "역할 변경"
	case NotificationPetUpdate:
		return "반려동물 정보 수정"
	case NotificationSystemRanking:
		return "산책왕 알림"
	case NotificationSystemWeather:
		return "날씨 기반 산책 추천"
	case NotificationSystemReminder:
		return "산책 알림"
	case NotificationSystemHealth:
		return "건강 피드백"
	case NotificationSOS:
		return "긴급 알림"
	case NotificationSOSResolved:
		return "긴급 상황 해제"
	default:
		return ""
	}
}

// Valid reports whether t belongs to the enum.
func (t NotificationType) Valid() bool {
	return t.Label() != ""
}

// Notification is either personal (TargetUserID set) or broadcast to every
// member of FamilyID. Rows are immutable once written; read state lives in
// NotificationRead.
type Notification struct {
	RecordModel

	FamilyID         string           `gorm:"size:36;not null;index" json:"family_id"`
	TargetUserID     *string          `gorm:"size:36;index" json:"target_user_id"`
	RelatedPetID     *string          `gorm:"size:36;index" json:"related_pet_id"`
	RelatedUserID    *string          `gorm:"size:36" json:"related_user_id"`
	RelatedRequestID *string          `gorm:"size:36" json:"related_request_id"`
	Type             NotificationType `gorm:"size:32;not null;index" json:"type"`
	Title            string           `gorm:"size:255;not null" json:"title"`
	Message          string           `gorm:"type:text" json:"message"`
	Latitude         *float64         `json:"latitude,omitempty"`
	Longitude        *float64         `json:"longitude,omitempty"`
	Payload          datatypes.JSON   `json:"payload,omitempty"`
}

// IsPersonal reports whether the notification targets a single user.
func (n *Notification) IsPersonal() bool {
	return n != nil && n.TargetUserID != nil && *n.TargetUserID != ""
}

// NotificationRead records that a user consumed a notification. At most one row
// exists per (notification, user).
type NotificationRead struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	NotificationID string    `gorm:"size:36;not null;uniqueIndex:idx_notification_reader,priority:1" json:"notification_id"`
	UserID         string    `gorm:"size:36;not null;uniqueIndex:idx_notification_reader,priority:2;index" json:"user_id"`
	ReadAt         time.Time `gorm:"not null" json:"read_at"`
}

// BeforeCreate ensures UUID identifiers are generated automatically.
func (r *NotificationRead) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
