package model

import "time"

// GymClass recurring weekly class (table gym_classes)
type GymClass struct {
	ClassID     string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	Name        string      `gorm:"type:varchar(100);not null"                     json:"name"`
	Description string      `gorm:"type:text"                                      json:"description,omitempty"`
	CoachID     string      `gorm:"type:uuid;not null;index"                       json:"coach_id"`
	CoachIDs    StringArray `gorm:"type:uuid[]"                                    json:"coach_ids,omitempty"` // additional coaches
	DayOfWeek   WeekDay     `gorm:"type:varchar(10);not null"                      json:"day_of_week"`
	Time        string      `gorm:"type:varchar(20);not null"                      json:"time"` // "18:00 – 19:00"
	ServiceType ServiceType `gorm:"type:varchar(10);not null;default:'CLASS'"      json:"service_type"`
	Capacity    int         `gorm:"not null;default:0"                             json:"capacity"`
	PriceCents  int64       `gorm:"not null;default:0"                             json:"price_cents"`
	VersionedModel

	// associations
	Coach *Coach `gorm:"foreignKey:CoachID;references:CoachID" json:"coach,omitempty"`
}

// TableName table name
func (GymClass) TableName() string { return "gym_classes" }

// AssignedTo reports whether the coach runs the class, either as the primary
// coach or through the multi-coach list.
func (c GymClass) AssignedTo(coachID string) bool {
	return c.CoachID == coachID || c.CoachIDs.Contains(coachID)
}

// AssignedCoachIDs primary coach first, then the additional coaches without duplicates.
func (c GymClass) AssignedCoachIDs() []string {
	ids := []string{c.CoachID}
	for _, id := range c.CoachIDs {
		if id != c.CoachID {
			ids = append(ids, id)
		}
	}
	return ids
}

// ClassCoverLog coach transfer audit log (table class_cover_logs)
type ClassCoverLog struct {
	CoverLogID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"cover_log_id"`
	ClassID         string    `gorm:"type:uuid;not null"                             json:"class_id"`
	OriginalCoachID string    `gorm:"type:uuid;not null"                             json:"original_coach_id"`
	NewCoachID      string    `gorm:"type:uuid;not null"                             json:"new_coach_id"`
	Reason          string    `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	OperatorID      string    `gorm:"type:uuid;not null"                             json:"operator_id"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName table name
func (ClassCoverLog) TableName() string { return "class_cover_logs" }
