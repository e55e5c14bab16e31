package dto

// ── auth ──

// TokenResponse token pair
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // access token lifetime, seconds
	User         UserResponse `json:"user"`
}

// UserResponse account
type UserResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Role    string `json:"role"`
	CoachID string `json:"coach_id,omitempty"`
}

// ── coaches ──

// CoachResponse coach profile
type CoachResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Email            string  `json:"email,omitempty"`
	Phone            string  `json:"phone,omitempty"`
	Bio              string  `json:"bio,omitempty"`
	PrivateRateCents int64   `json:"private_rate_cents"`
	IsActive         bool    `json:"is_active"`
	UserID           *string `json:"user_id,omitempty"`
	Version          int     `json:"version"`
}

// CoachBrief coach reference embedded in other responses
type CoachBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AvailabilityResponse weekly window
type AvailabilityResponse struct {
	ID        string `json:"id"`
	CoachID   string `json:"coach_id"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Version   int    `json:"version"`
}

// UnavailabilityResponse one-off block
type UnavailabilityResponse struct {
	ID        string  `json:"id"`
	CoachID   string  `json:"coach_id"`
	Date      string  `json:"date"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	FullDay   bool    `json:"full_day"`
	Reason    string  `json:"reason,omitempty"`
	Source    string  `json:"source"`
}

// ImportUnavailabilityResponse calendar import summary
type ImportUnavailabilityResponse struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ── classes ──

// ClassResponse weekly class
type ClassResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	CoachID     string      `json:"coach_id"`
	Coach       *CoachBrief `json:"coach,omitempty"`
	CoachIDs    []string    `json:"coach_ids,omitempty"`
	DayOfWeek   string      `json:"day_of_week"`
	Time        string      `json:"time"`
	ServiceType string      `json:"service_type"`
	Capacity    int         `json:"capacity"`
	PriceCents  int64       `json:"price_cents"`
	Version     int         `json:"version"`
}

// CoverLogResponse one coach transfer of a class
type CoverLogResponse struct {
	ID              string `json:"id"`
	OriginalCoachID string `json:"original_coach_id"`
	NewCoachID      string `json:"new_coach_id"`
	Reason          string `json:"reason,omitempty"`
	OperatorID      string `json:"operator_id"`
	CreatedAt       string `json:"created_at"`
}

// AvailabilityCheckResponse availability decision
type AvailabilityCheckResponse struct {
	IsAvailable bool   `json:"is_available"`
	Reason      string `json:"reason,omitempty"`
	CheckDate   string `json:"check_date,omitempty"`
}

// ── slots ──

// SlotResponse persisted or synthesized slot
type SlotResponse struct {
	ID          string `json:"id"`
	CoachID     string `json:"coach_id"`
	ServiceType string `json:"service_type"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	Capacity    int    `json:"capacity"`
	PriceCents  int64  `json:"price_cents"`
	Notes       string `json:"notes,omitempty"`
	IsBooked    bool   `json:"is_booked"`
	IsRecurring bool   `json:"is_recurring"`
}

// CalendarResponse month projection
type CalendarResponse struct {
	CoachID     string         `json:"coach_id"`
	Month       string         `json:"month"`
	ServiceType string         `json:"service_type"`
	Timezone    string         `json:"timezone"`
	Slots       []SlotResponse `json:"slots"`
}

// ── bookings ──

// AppointmentResponse booking
type AppointmentResponse struct {
	ID          string      `json:"id"`
	SlotID      string      `json:"slot_id"`
	CoachID     string      `json:"coach_id"`
	Coach       *CoachBrief `json:"coach,omitempty"`
	ServiceType string      `json:"service_type"`
	StartsAt    string      `json:"starts_at"`
	EndsAt      string      `json:"ends_at"`
	Status      string      `json:"status"`
	PriceCents  int64       `json:"price_cents"`
	Currency    string      `json:"currency"`
	CheckoutURL string      `json:"checkout_url,omitempty"`
}
