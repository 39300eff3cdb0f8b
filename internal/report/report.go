// Package report aggregates one day of attendance and leave into a daily report.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hozur/internal/model"
	"hozur/internal/shifts"
)

// Source is the read side of the store the report needs.
type Source interface {
	ListAssignments(ctx context.Context, date string, shiftID int) ([]model.Assignment, error)
	ListAttendance(ctx context.Context, date string) ([]model.AttendanceRecord, error)
	ListLeaveRequests(ctx context.Context, date string) ([]model.LeaveRequest, error)
	OnApprovedLeave(ctx context.Context, date string) (map[int64]struct{}, error)
	EmployeesByID(ctx context.Context, ids []int64) (map[int64]model.Employee, error)
}

// Row is one attendance line.
type Row struct {
	EmployeeID   int64
	Employee     string
	CheckIn      *time.Time
	CheckOut     *time.Time
	DelayMinutes int
}

// Person is an employee referenced by a section.
type Person struct {
	ID   int64
	Name string
}

// Section is one shift of the day.
type Section struct {
	Shift   model.Shift
	Label   string
	Present []Row
	Absent  []Person
	OnLeave []Person
}

// LeaveLine is one leave request of the day.
type LeaveLine struct {
	ID       int64
	Employee string
	Reason   string
	Status   model.Status
}

// Daily is the aggregated report of one calendar day.
type Daily struct {
	Date     string
	Sections []Section
	Leave    []LeaveLine
}

// Records counts the attendance rows across all sections.
func (d *Daily) Records() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Present)
	}
	return n
}

// Build aggregates date. Every catalog shift gets a section even when empty;
// records of shifts missing from the catalog get a section of their own.
func Build(ctx context.Context, src Source, cat *shifts.Catalog, date string) (*Daily, error) {
	assignments, err := src.ListAssignments(ctx, date, 0)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	records, err := src.ListAttendance(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	leaves, err := src.ListLeaveRequests(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	onLeave, err := src.OnApprovedLeave(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list approved leave: %w", err)
	}

	var ids []int64
	for _, a := range assignments {
		ids = append(ids, a.EmployeeID)
	}
	for _, r := range records {
		ids = append(ids, r.EmployeeID)
	}
	for _, l := range leaves {
		ids = append(ids, l.EmployeeID)
	}
	people, err := src.EmployeesByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	name := func(id int64) string {
		if e, ok := people[id]; ok {
			return e.Label()
		}
		return (&model.Employee{ID: id}).Label()
	}

	sections := make(map[int]*Section)
	order := cat.IDs()
	for _, id := range order {
		s, _ := cat.Get(id)
		sections[id] = &Section{Shift: s, Label: cat.Label(id)}
	}
	section := func(id int) *Section {
		if s, ok := sections[id]; ok {
			return s
		}
		s := &Section{Shift: model.Shift{ID: id}, Label: cat.Label(id)}
		sections[id] = s
		order = append(order, id)
		return s
	}

	checkedIn := make(map[int64]struct{}, len(records))
	for _, r := range records {
		if !r.CheckedIn() {
			continue
		}
		checkedIn[r.EmployeeID] = struct{}{}
		s := section(r.ShiftID)
		s.Present = append(s.Present, Row{
			EmployeeID:   r.EmployeeID,
			Employee:     name(r.EmployeeID),
			CheckIn:      r.CheckIn,
			CheckOut:     r.CheckOut,
			DelayMinutes: r.DelayMinutes,
		})
	}
	for _, a := range assignments {
		if _, ok := checkedIn[a.EmployeeID]; ok {
			continue
		}
		s := section(a.ShiftID)
		p := Person{ID: a.EmployeeID, Name: name(a.EmployeeID)}
		if _, ok := onLeave[a.EmployeeID]; ok {
			s.OnLeave = append(s.OnLeave, p)
		} else {
			s.Absent = append(s.Absent, p)
		}
	}

	d := &Daily{Date: date}
	for _, id := range order {
		s := sections[id]
		sort.SliceStable(s.Absent, func(i, j int) bool { return s.Absent[i].Name < s.Absent[j].Name })
		sort.SliceStable(s.OnLeave, func(i, j int) bool { return s.OnLeave[i].Name < s.OnLeave[j].Name })
		d.Sections = append(d.Sections, *s)
	}
	for _, l := range leaves {
		d.Leave = append(d.Leave, LeaveLine{
			ID:       l.ID,
			Employee: name(l.EmployeeID),
			Reason:   l.Reason,
			Status:   l.Status,
		})
	}
	return d, nil
}
