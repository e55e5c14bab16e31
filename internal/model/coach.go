package model

// Coach coach profile (table coaches)
type Coach struct {
	CoachID          string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"coach_id"`
	UserID           *string `gorm:"type:uuid"                                      json:"user_id,omitempty"`
	Name             string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email            string  `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	Phone            string  `gorm:"type:varchar(20)"                               json:"phone,omitempty"`
	Bio              string  `gorm:"type:text"                                      json:"bio,omitempty"`
	PrivateRateCents int64   `gorm:"not null;default:0"                             json:"private_rate_cents"` // price of a synthesized 1h private session
	IsActive         bool    `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// associations
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName table name
func (Coach) TableName() string { return "coaches" }
