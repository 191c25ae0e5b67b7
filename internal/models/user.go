package models

// User is the local account bound to an external identity provider subject.
type User struct {
	BaseModel

	FirebaseUID   string `gorm:"size:128;uniqueIndex;not null" json:"firebase_uid"`
	SNSProvider   string `gorm:"size:32" json:"sns_provider,omitempty"`
	Nickname      string `gorm:"size:50" json:"nickname"`
	Email         string `gorm:"size:255;index" json:"email"`
	Phone         string `gorm:"size:30" json:"phone,omitempty"`
	ProfileImgURL string `gorm:"type:text" json:"profile_img_url,omitempty"`
	FCMToken      string `gorm:"type:text" json:"-"`
}

// DisplayName returns the nickname, falling back to the email local part.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Nickname != "" {
		return u.Nickname
	}
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}
