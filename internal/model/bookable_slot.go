package model

import "time"

// BookableSlot persisted one-off session slot (table bookable_slots)
// Overlapping live slots of one coach are rejected by an exclusion constraint.
type BookableSlot struct {
	SlotID      string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"slot_id"`
	CoachID     string      `gorm:"type:uuid;not null;index"                       json:"coach_id"`
	ServiceType ServiceType `gorm:"type:varchar(10);not null"                      json:"service_type"`
	StartsAt    time.Time   `gorm:"not null"                                       json:"starts_at"`
	EndsAt      time.Time   `gorm:"not null"                                       json:"ends_at"`
	Capacity    int         `gorm:"not null;default:1"                             json:"capacity"`
	PriceCents  int64       `gorm:"not null;default:0"                             json:"price_cents"`
	Notes       string      `gorm:"type:varchar(500)"                              json:"notes,omitempty"`
	VersionedModel

	// associations
	Coach *Coach `gorm:"foreignKey:CoachID;references:CoachID" json:"coach,omitempty"`
}

// TableName table name
func (BookableSlot) TableName() string { return "bookable_slots" }

// Appointment a member's booking of a slot (table appointments)
type Appointment struct {
	AppointmentID   string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"appointment_id"`
	SlotID          string            `gorm:"type:uuid;not null;index"                       json:"slot_id"`
	CoachID         string            `gorm:"type:uuid;not null"                             json:"coach_id"`
	MemberID        string            `gorm:"type:uuid;not null;index"                       json:"member_id"`
	ServiceType     ServiceType       `gorm:"type:varchar(10);not null"                      json:"service_type"`
	StartsAt        time.Time         `gorm:"not null"                                       json:"starts_at"`
	EndsAt          time.Time         `gorm:"not null"                                       json:"ends_at"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null"                      json:"status"`
	PriceCents      int64             `gorm:"not null;default:0"                             json:"price_cents"`
	Currency        string            `gorm:"type:varchar(3);not null;default:'gbp'"         json:"currency"`
	StripeSessionID *string           `gorm:"type:varchar(255);index"                        json:"stripe_session_id,omitempty"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty"`
	BaseModel

	// associations
	Slot   *BookableSlot `gorm:"foreignKey:SlotID;references:SlotID"     json:"slot,omitempty"`
	Coach  *Coach        `gorm:"foreignKey:CoachID;references:CoachID"   json:"coach,omitempty"`
	Member *User         `gorm:"foreignKey:MemberID;references:UserID"   json:"member,omitempty"`
}

// TableName table name
func (Appointment) TableName() string { return "appointments" }

// IsActive reports whether the appointment still holds its slot.
func (a Appointment) IsActive() bool {
	return a.Status != AppointmentCancelled
}
