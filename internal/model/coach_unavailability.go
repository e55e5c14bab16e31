package model

import "time"

// CoachUnavailability one-off blocked time (table coach_unavailability)
// A row without start/end blocks the whole date.
type CoachUnavailability struct {
	UnavailabilityID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"unavailability_id"`
	CoachID          string    `gorm:"type:uuid;not null;index"                       json:"coach_id"`
	Date             time.Time `gorm:"type:date;not null"                             json:"date"`
	StartTime        *string   `gorm:"type:varchar(5)"                                json:"start_time,omitempty"`
	EndTime          *string   `gorm:"type:varchar(5)"                                json:"end_time,omitempty"`
	Reason           string    `gorm:"type:varchar(200)"                              json:"reason,omitempty"`
	Source           string    `gorm:"type:varchar(20);not null;default:'manual'"     json:"source"` // manual | ics
	VersionedModel
}

// TableName table name
func (CoachUnavailability) TableName() string { return "coach_unavailability" }

// IsFullDay reports whether the block covers the whole date.
func (u CoachUnavailability) IsFullDay() bool {
	return u.StartTime == nil || u.EndTime == nil
}
