// internal/models/user.go
package models

// User is the identity record the engine's foreign keys resolve against.
// Credentials and session issuance live outside this service; requests arrive
// with an externally minted token.
type User struct {
	BaseModel
	Username    string `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	DisplayName string `json:"display_name" gorm:"type:varchar(100)"`
	AvatarURL   string `json:"avatar_url,omitempty" gorm:"type:text"`
	Location    string `json:"location,omitempty" gorm:"type:varchar(100)"`
}
