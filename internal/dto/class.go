package dto

// ── classes ──

// CreateClassRequest schedule a weekly class
type CreateClassRequest struct {
	Name        string   `json:"name"         binding:"required,min=2,max=100"`
	Description string   `json:"description"  binding:"omitempty,max=2000"`
	CoachID     string   `json:"coach_id"     binding:"required,uuid"`
	CoachIDs    []string `json:"coach_ids"    binding:"omitempty,dive,uuid"`
	DayOfWeek   string   `json:"day_of_week"  binding:"required,weekday"`
	Time        string   `json:"time"         binding:"required,max=20"` // "18:00 – 19:00"
	ServiceType string   `json:"service_type" binding:"omitempty,servicetype"`
	Capacity    int      `json:"capacity"     binding:"min=0"`
	PriceCents  int64    `json:"price_cents"  binding:"min=0"`
	CheckDate   string   `json:"check_date"   binding:"omitempty,datetime=2006-01-02"`
}

// UpdateClassRequest partial update; the availability check reruns on the
// resulting class
type UpdateClassRequest struct {
	Name        *string   `json:"name"         binding:"omitempty,min=2,max=100"`
	Description *string   `json:"description"  binding:"omitempty,max=2000"`
	CoachID     *string   `json:"coach_id"     binding:"omitempty,uuid"`
	CoachIDs    *[]string `json:"coach_ids"    binding:"omitempty,dive,uuid"`
	DayOfWeek   *string   `json:"day_of_week"  binding:"omitempty,weekday"`
	Time        *string   `json:"time"         binding:"omitempty,max=20"`
	ServiceType *string   `json:"service_type" binding:"omitempty,servicetype"`
	Capacity    *int      `json:"capacity"     binding:"omitempty,min=0"`
	PriceCents  *int64    `json:"price_cents"  binding:"omitempty,min=0"`
	CheckDate   string    `json:"check_date"   binding:"omitempty,datetime=2006-01-02"`
	Version     int       `json:"version"      binding:"required,min=1"`
}

// TransferClassRequest hand a class to a covering coach
type TransferClassRequest struct {
	NewCoachID string `json:"new_coach_id" binding:"required,uuid"`
	Reason     string `json:"reason"       binding:"omitempty,max=500"`
	CheckDate  string `json:"check_date"   binding:"omitempty,datetime=2006-01-02"`
}

// CheckAvailabilityRequest dry-run of the availability decision
type CheckAvailabilityRequest struct {
	CoachID       string `json:"coach_id"        binding:"required,uuid"`
	DayOfWeek     string `json:"day_of_week"     binding:"required,weekday"`
	Time          string `json:"time"            binding:"required,max=20"`
	CheckDate     string `json:"check_date"      binding:"omitempty,datetime=2006-01-02"`
	IgnoreClassID string `json:"ignore_class_id" binding:"omitempty,uuid"`
}

// ClassListRequest list filters
type ClassListRequest struct {
	DayOfWeek string `form:"day_of_week" binding:"omitempty,weekday"`
	CoachID   string `form:"coach_id"    binding:"omitempty,uuid"`
}
