package model

// CoachAvailability recurring weekly window (table coach_availability)
type CoachAvailability struct {
	AvailabilityID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"availability_id"`
	CoachID        string  `gorm:"type:uuid;not null;index"                       json:"coach_id"`
	DayOfWeek      WeekDay `gorm:"type:varchar(10);not null"                      json:"day_of_week"`
	StartTime      string  `gorm:"type:varchar(5);not null"                       json:"start_time"` // "09:00"
	EndTime        string  `gorm:"type:varchar(5);not null"                       json:"end_time"`   // "17:00"
	VersionedModel
}

// TableName table name
func (CoachAvailability) TableName() string { return "coach_availability" }
