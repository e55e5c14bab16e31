package dto

// ── coaches ──

// CreateCoachRequest create a coach profile, optionally linked to a login
type CreateCoachRequest struct {
	Name             string  `json:"name"               binding:"required,min=2,max=100"`
	Email            string  `json:"email"              binding:"omitempty,email"`
	Phone            string  `json:"phone"              binding:"omitempty,e164"`
	Bio              string  `json:"bio"                binding:"omitempty,max=2000"`
	PrivateRateCents int64   `json:"private_rate_cents" binding:"min=0"`
	UserID           *string `json:"user_id"            binding:"omitempty,uuid"`
}

// UpdateCoachRequest partial update
type UpdateCoachRequest struct {
	Name             *string `json:"name"               binding:"omitempty,min=2,max=100"`
	Email            *string `json:"email"              binding:"omitempty,email"`
	Phone            *string `json:"phone"              binding:"omitempty,e164"`
	Bio              *string `json:"bio"                binding:"omitempty,max=2000"`
	PrivateRateCents *int64  `json:"private_rate_cents" binding:"omitempty,min=0"`
	IsActive         *bool   `json:"is_active"`
	Version          int     `json:"version"            binding:"required,min=1"`
}

// CoachListRequest list filters
type CoachListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// ── recurring availability ──

// AvailabilityRequest create or replace a weekly window
type AvailabilityRequest struct {
	DayOfWeek string `json:"day_of_week" binding:"required,weekday"`
	StartTime string `json:"start_time"  binding:"required,hhmm"`
	EndTime   string `json:"end_time"    binding:"required,hhmm"`
}

// UpdateAvailabilityRequest update a window in place
type UpdateAvailabilityRequest struct {
	AvailabilityRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ── one-off unavailability ──

// UnavailabilityRequest block a date, or part of it when both times are set
type UnavailabilityRequest struct {
	Date      string  `json:"date"       binding:"required,datetime=2006-01-02"`
	StartTime *string `json:"start_time" binding:"omitempty,hhmm"`
	EndTime   *string `json:"end_time"   binding:"omitempty,hhmm"`
	Reason    string  `json:"reason"     binding:"omitempty,max=200"`
}

// UnavailabilityListRequest optional date range
type UnavailabilityListRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}
