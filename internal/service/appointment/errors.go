package appointment

import "github.com/Alijeyrad/clinicflow_backend/pkg/apperr"

var (
	ErrNotFound            = apperr.NotFound("appointment not found")
	ErrMissingFields       = apperr.Validation("title, patient_id, professional_id, start_time and end_time are required")
	ErrInvalidTime         = apperr.Validation("times must be RFC3339 timestamps")
	ErrInvalidDate         = apperr.Validation("dates must be RFC3339 timestamps or YYYY-MM-DD")
	ErrInvalidRange        = apperr.Validation("start_time must be before end_time")
	ErrInvalidID           = apperr.Validation("invalid id")
	ErrInvalidStatus       = apperr.Validation("invalid status")
	ErrInvalidAttendance   = apperr.Validation("invalid attendance_status")
	ErrEmptyUpdate         = apperr.Validation("nothing to update")
	ErrForeignPatient      = apperr.CrossTenant("patient does not belong to this clinic")
	ErrForeignProfessional = apperr.CrossTenant("professional does not belong to this clinic")
	ErrOtherProfessional   = apperr.Forbidden("appointment belongs to another professional")

	ErrNoLinkedProfessional = apperr.Forbidden("no professional is linked to this role")
)
