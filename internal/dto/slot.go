package dto

import "time"

// ── slots ──

// CreateSlotRequest publish a one-off bookable slot
type CreateSlotRequest struct {
	ServiceType string    `json:"service_type" binding:"required,servicetype"`
	StartsAt    time.Time `json:"starts_at"    binding:"required"`
	EndsAt      time.Time `json:"ends_at"      binding:"required,gtfield=StartsAt"`
	Capacity    int       `json:"capacity"     binding:"omitempty,min=1,max=100"`
	PriceCents  int64     `json:"price_cents"  binding:"min=0"`
	Notes       string    `json:"notes"        binding:"omitempty,max=500"`
}

// SlotListRequest date range, defaulting to the next four weeks
type SlotListRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}

// CalendarRequest month projection query
type CalendarRequest struct {
	Month       string `form:"month"        binding:"required,datetime=2006-01"`
	ServiceType string `form:"service_type" binding:"omitempty,servicetype"`
}

// ── bookings ──

// BookRequest book a persisted or synthesized slot
type BookRequest struct {
	SlotID string `json:"slot_id" binding:"required,max=200"`
}
