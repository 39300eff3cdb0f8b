package workflow

import "hozur/internal/apperr"

// Codes double as i18n message ids.
var (
	ErrNotPrivileged = apperr.New(apperr.KindAccessDenied, "err.not_privileged", "privileged role required")
	ErrNotApproved   = apperr.New(apperr.KindAccessDenied, "err.not_approved", "employee is not approved")

	ErrNoAssignment        = apperr.New(apperr.KindInvalidState, "err.no_assignment", "shift not set for today")
	ErrAlreadyCheckedIn    = apperr.New(apperr.KindInvalidState, "err.already_checked_in", "already checked in today")
	ErrNotCheckedIn        = apperr.New(apperr.KindInvalidState, "err.not_checked_in", "not checked in today")
	ErrAlreadyCheckedOut   = apperr.New(apperr.KindInvalidState, "err.already_checked_out", "already checked out today")
	ErrAlreadyResolved     = apperr.New(apperr.KindInvalidState, "err.already_resolved", "already resolved")
	ErrNoCurrentShift      = apperr.New(apperr.KindInvalidState, "err.no_current_shift", "no shift is running now")
	ErrAssigneeNotApproved = apperr.New(apperr.KindInvalidState, "err.assignee_not_approved", "employee is not approved")

	ErrUnknownShift  = apperr.New(apperr.KindValidation, "err.unknown_shift", "unknown shift")
	ErrInvalidDate   = apperr.New(apperr.KindValidation, "err.invalid_date", "date must be YYYY-MM-DD")
	ErrDateInPast    = apperr.New(apperr.KindValidation, "err.date_in_past", "date is in the past")
	ErrEmptyText     = apperr.New(apperr.KindValidation, "err.empty_text", "text is empty")
	ErrEmptyName     = apperr.New(apperr.KindValidation, "err.empty_name", "name is empty")
	ErrInvalidChoice = apperr.New(apperr.KindValidation, "err.invalid_decision", "unknown decision")

	ErrEmployeeNotFound = apperr.New(apperr.KindNotFound, "err.employee_not_found", "employee not found")
	ErrLeaveNotFound    = apperr.New(apperr.KindNotFound, "err.leave_not_found", "leave request not found")
)
