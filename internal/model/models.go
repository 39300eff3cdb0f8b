package model

import (
	"strconv"
	"time"
)

// DateLayout is the storage and display layout of calendar days.
const DateLayout = "2006-01-02"

// Status is the approval state shared by employees and leave requests.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Decision is a privileged verdict on a pending item.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Status returns the terminal status a decision leads to.
func (d Decision) Status() Status {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

type Employee struct {
	ID          int64
	DisplayName string
	Handle      string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Label returns the display name, falling back to the handle and the id.
func (e *Employee) Label() string {
	switch {
	case e == nil:
		return ""
	case e.DisplayName != "":
		return e.DisplayName
	case e.Handle != "":
		return "@" + e.Handle
	default:
		return "#" + strconv.FormatInt(e.ID, 10)
	}
}

type Shift struct {
	ID    int
	Name  string
	Start string // HH:MM
	End   string // HH:MM, may be <= Start for shifts ending after midnight
}

type Assignment struct {
	EmployeeID int64
	Date       string
	ShiftID    int
	AssignedBy int64
	UpdatedAt  time.Time
}

type AttendanceRecord struct {
	ID           int64
	Date         string
	EmployeeID   int64
	ShiftID      int
	CheckIn      *time.Time
	CheckOut     *time.Time
	DelayMinutes int
}

// CheckedIn reports whether the record carries a check-in time.
func (r *AttendanceRecord) CheckedIn() bool {
	return r != nil && r.CheckIn != nil
}

// CheckedOut reports whether the record carries a check-out time.
func (r *AttendanceRecord) CheckedOut() bool {
	return r != nil && r.CheckOut != nil
}

type HandoverNote struct {
	ID         int64
	Date       string
	EmployeeID int64
	ShiftID    int
	Text       string
	CreatedAt  time.Time
}

// ManagerNote is a broadcast note. ShiftID 0 targets every shift of the day.
type ManagerNote struct {
	ID        int64
	Date      string
	ShiftID   int
	AuthorID  int64
	Text      string
	CreatedAt time.Time
}

type LeaveRequest struct {
	ID         int64
	Date       string
	EmployeeID int64
	Reason     string
	Status     Status
	ResolvedBy int64
	ResolvedAt *time.Time
	CreatedAt  time.Time
}
