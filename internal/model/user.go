package model

// User account table (table users)
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Phone        string `gorm:"type:varchar(20)"                               json:"phone,omitempty"` // E.164, used for WhatsApp
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'member'"     json:"role"` // admin | coach | member
	VersionedModel
}

// TableName table name
func (User) TableName() string { return "users" }
