package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hozur/internal/i18n"
	"hozur/internal/model"
	"hozur/shared/audit"
)

const clockLayout = "15:04"

// Text renders the report as a chat message. Empty sections and an empty leave
// list render an explicit "none recorded" line.
func Text(ctx context.Context, d *Daily, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(i18n.T(ctx, "report.title", map[string]any{"Date": d.Date}))
	b.WriteString("\n")

	for _, s := range d.Sections {
		b.WriteString("\n")
		b.WriteString(i18n.T(ctx, "report.shift", map[string]any{"Shift": s.Label}))
		b.WriteString("\n")
		if len(s.Present) == 0 {
			b.WriteString(i18n.T(ctx, "report.none"))
			b.WriteString("\n")
		}
		for _, r := range s.Present {
			b.WriteString(i18n.T(ctx, "report.row", map[string]any{
				"Name":  r.Employee,
				"In":    clock(r.CheckIn, loc),
				"Out":   clock(r.CheckOut, loc),
				"Delay": r.DelayMinutes,
			}))
			b.WriteString("\n")
		}
		if len(s.Absent) > 0 {
			b.WriteString(i18n.T(ctx, "report.absent", map[string]any{"Names": names(s.Absent)}))
			b.WriteString("\n")
		}
		if len(s.OnLeave) > 0 {
			b.WriteString(i18n.T(ctx, "report.on_leave", map[string]any{"Names": names(s.OnLeave)}))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(i18n.T(ctx, "report.leave_title"))
	b.WriteString("\n")
	if len(d.Leave) == 0 {
		b.WriteString(i18n.T(ctx, "report.none"))
		b.WriteString("\n")
	}
	for _, l := range d.Leave {
		b.WriteString(i18n.T(ctx, "report.leave_row", map[string]any{
			"ID":     l.ID,
			"Name":   l.Employee,
			"Reason": l.Reason,
			"Status": StatusLabel(ctx, l.Status),
		}))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// StatusLabel returns the localized name of a status.
func StatusLabel(ctx context.Context, s model.Status) string {
	return i18n.T(ctx, "status."+string(s))
}

// FileName returns the attachment name of the report of date.
func FileName(date string) string {
	return fmt.Sprintf("hozur_report_%s.xlsx", date)
}

// XLSX renders the report as a workbook with an attendance and a leave sheet.
func XLSX(ctx context.Context, d *Daily, loc *time.Location) ([]byte, error) {
	w := audit.NewWorkbook()
	defer w.Close()

	if err := w.AddSheet(i18n.T(ctx, "xlsx.attendance")); err != nil {
		return nil, err
	}
	if err := w.WriteHeader(
		i18n.T(ctx, "xlsx.date"),
		i18n.T(ctx, "xlsx.shift"),
		i18n.T(ctx, "xlsx.employee"),
		i18n.T(ctx, "xlsx.check_in"),
		i18n.T(ctx, "xlsx.check_out"),
		i18n.T(ctx, "xlsx.delay"),
		i18n.T(ctx, "xlsx.presence"),
	); err != nil {
		return nil, err
	}
	for _, s := range d.Sections {
		for _, r := range s.Present {
			if err := w.WriteRow(d.Date, s.Label, r.Employee, clock(r.CheckIn, loc), clock(r.CheckOut, loc), r.DelayMinutes, i18n.T(ctx, "xlsx.present")); err != nil {
				return nil, err
			}
		}
		for _, p := range s.Absent {
			if err := w.WriteRow(d.Date, s.Label, p.Name, "", "", "", i18n.T(ctx, "xlsx.absent")); err != nil {
				return nil, err
			}
		}
		for _, p := range s.OnLeave {
			if err := w.WriteRow(d.Date, s.Label, p.Name, "", "", "", i18n.T(ctx, "xlsx.on_leave")); err != nil {
				return nil, err
			}
		}
	}

	if err := w.AddSheet(i18n.T(ctx, "xlsx.leave")); err != nil {
		return nil, err
	}
	if err := w.WriteHeader(
		i18n.T(ctx, "xlsx.id"),
		i18n.T(ctx, "xlsx.employee"),
		i18n.T(ctx, "xlsx.reason"),
		i18n.T(ctx, "xlsx.status"),
	); err != nil {
		return nil, err
	}
	for _, l := range d.Leave {
		if err := w.WriteRow(l.ID, l.Employee, l.Reason, StatusLabel(ctx, l.Status)); err != nil {
			return nil, err
		}
	}
	return w.Bytes()
}

func clock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	if loc != nil {
		return t.In(loc).Format(clockLayout)
	}
	return t.Format(clockLayout)
}

func names(people []Person) string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.Name
	}
	return strings.Join(out, ", ")
}
