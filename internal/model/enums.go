package model

import (
	"strings"
	"time"
)

// ── Day of week ──

// WeekDay calendar day name. Recurring availability and classes are scoped
// to a day of the week, never to a date.
type WeekDay string

const (
	Monday    WeekDay = "Monday"
	Tuesday   WeekDay = "Tuesday"
	Wednesday WeekDay = "Wednesday"
	Thursday  WeekDay = "Thursday"
	Friday    WeekDay = "Friday"
	Saturday  WeekDay = "Saturday"
	Sunday    WeekDay = "Sunday"
)

// indexed by time.Weekday
var weekDaysByGo = [7]WeekDay{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekDays Monday-first ordering used for display and export.
var WeekDays = []WeekDay{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// WeekDayOf returns the day name of t in t's own location.
func WeekDayOf(t time.Time) WeekDay {
	return weekDaysByGo[t.Weekday()]
}

// ParseWeekDay accepts a day name in any letter case.
func ParseWeekDay(s string) (WeekDay, bool) {
	s = strings.TrimSpace(s)
	for _, d := range weekDaysByGo {
		if strings.EqualFold(string(d), s) {
			return d, true
		}
	}
	return "", false
}

// Valid reports whether d is one of the seven day names.
func (d WeekDay) Valid() bool {
	_, ok := d.Weekday()
	return ok
}

// Weekday converts to time.Weekday.
func (d WeekDay) Weekday() (time.Weekday, bool) {
	for i, wd := range weekDaysByGo {
		if wd == d {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// ISO 1=Monday … 7=Sunday, 0 for an invalid day.
func (d WeekDay) ISO() int {
	wd, ok := d.Weekday()
	if !ok {
		return 0
	}
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// ── Service type ──

// ServiceType the one kind of offering shared by classes, slots and bookings.
type ServiceType string

const (
	ServicePrivate ServiceType = "PRIVATE"
	ServiceGroup   ServiceType = "GROUP"
	ServiceClass   ServiceType = "CLASS"
)

// Valid reports whether t is a known service type.
func (t ServiceType) Valid() bool {
	switch t {
	case ServicePrivate, ServiceGroup, ServiceClass:
		return true
	}
	return false
}

// ── Appointment status ──

// AppointmentStatus booking lifecycle
type AppointmentStatus string

const (
	AppointmentPendingPayment AppointmentStatus = "pending_payment"
	AppointmentConfirmed      AppointmentStatus = "confirmed"
	AppointmentCancelled      AppointmentStatus = "cancelled"
)

// ── Roles ──

const (
	RoleAdmin  = "admin"
	RoleCoach  = "coach"
	RoleMember = "member"
)
