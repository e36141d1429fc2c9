package appointment

import "strings"

// Status is the booking state of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusScheduled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// AttendanceStatus records what happened at the appointment.
type AttendanceStatus string

const (
	AttendanceScheduled   AttendanceStatus = "scheduled"
	AttendanceAttended    AttendanceStatus = "attended"
	AttendanceNoShow      AttendanceStatus = "no_show"
	AttendanceCancelled   AttendanceStatus = "cancelled"
	AttendanceRescheduled AttendanceStatus = "rescheduled"
)

func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	switch st := AttendanceStatus(strings.TrimSpace(s)); st {
	case AttendanceScheduled, AttendanceAttended, AttendanceNoShow, AttendanceCancelled, AttendanceRescheduled:
		return st, nil
	}
	return "", ErrInvalidAttendance
}
