// Package shifts holds the fixed daily shift table and the clock arithmetic around it.
package shifts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"hozur/internal/model"
)

// Defaults mirrors the three-shift rota the bot was first deployed with.
var Defaults = []model.Shift{
	{ID: 1, Name: "Shift 1", Start: "08:00", End: "16:00"},
	{ID: 2, Name: "Shift 2", Start: "16:00", End: "24:00"},
	{ID: 3, Name: "Shift 3", Start: "00:00", End: "08:00"},
}

type entry struct {
	shift model.Shift
	start time.Duration // offset from midnight
	end   time.Duration // offset from midnight of the start day, > start
}

// Catalog is an immutable shift table bound to one location.
type Catalog struct {
	entries map[int]entry
	order   []int
	loc     *time.Location
}

// NewCatalog validates the table and returns a catalog. A shift whose end is not
// after its start ends on the following day.
func NewCatalog(list []model.Shift, loc *time.Location) (*Catalog, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("no shifts defined")
	}
	if loc == nil {
		loc = time.Local
	}
	c := &Catalog{entries: make(map[int]entry, len(list)), loc: loc}
	for i, s := range list {
		if s.ID <= 0 {
			return nil, fmt.Errorf("shift[%d]: id must be positive, got %d", i, s.ID)
		}
		if _, dup := c.entries[s.ID]; dup {
			return nil, fmt.Errorf("shift[%d]: duplicate id %d", i, s.ID)
		}
		start, err := ParseClock(s.Start)
		if err != nil {
			return nil, fmt.Errorf("shift[%d].start: %w", i, err)
		}
		end, err := ParseClock(s.End)
		if err != nil {
			return nil, fmt.Errorf("shift[%d].end: %w", i, err)
		}
		if start == 24*time.Hour {
			return nil, fmt.Errorf("shift[%d].start: 24:00 is only valid as an end time", i)
		}
		if end <= start {
			end += 24 * time.Hour
		}
		if s.Name == "" {
			s.Name = "Shift " + strconv.Itoa(s.ID)
		}
		c.entries[s.ID] = entry{shift: s, start: start, end: end}
		c.order = append(c.order, s.ID)
	}
	sort.Ints(c.order)
	return c, nil
}

// MustDefault returns the catalog built from Defaults.
func MustDefault(loc *time.Location) *Catalog {
	c, err := NewCatalog(Defaults, loc)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseClock parses HH:MM into an offset from midnight. 24:00 is accepted.
func ParseClock(v string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid format '%s', expected HH:MM", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in '%s'", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in '%s'", v)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time '%s' out of range", v)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// Location returns the catalog's wall-clock location.
func (c *Catalog) Location() *time.Location {
	return c.loc
}

// Get returns the shift with the given id.
func (c *Catalog) Get(id int) (model.Shift, bool) {
	e, ok := c.entries[id]
	return e.shift, ok
}

// Has reports whether id is a known shift.
func (c *Catalog) Has(id int) bool {
	_, ok := c.entries[id]
	return ok
}

// IDs returns the shift ids in ascending order.
func (c *Catalog) IDs() []int {
	return append([]int(nil), c.order...)
}

// Midnight returns the start of the calendar day named by date.
func (c *Catalog) Midnight(date string) (time.Time, error) {
	d, err := time.ParseInLocation(model.DateLayout, date, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s', expected YYYY-MM-DD", date)
	}
	return d, nil
}

// Start returns the instant the shift begins on date.
func (c *Catalog) Start(date string, id int) (time.Time, error) {
	e, ok := c.entries[id]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown shift %d", id)
	}
	day, err := c.Midnight(date)
	if err != nil {
		return time.Time{}, err
	}
	return at(day, e.start), nil
}

// End returns the instant the shift started on date ends, possibly on the next day.
func (c *Catalog) End(date string, id int) (time.Time, error) {
	e, ok := c.entries[id]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown shift %d", id)
	}
	day, err := c.Midnight(date)
	if err != nil {
		return time.Time{}, err
	}
	return at(day, e.end), nil
}

// Current returns the shift running at now, if any. Shifts that started on the
// previous day and wrap past midnight are considered as well.
func (c *Catalog) Current(now time.Time) (model.Shift, bool) {
	now = now.In(c.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	for _, day := range []time.Time{today, today.AddDate(0, 0, -1)} {
		for _, id := range c.order {
			e := c.entries[id]
			start, end := at(day, e.start), at(day, e.end)
			if !now.Before(start) && now.Before(end) {
				return e.shift, true
			}
		}
	}
	return model.Shift{}, false
}

// Label renders "Name (HH:MM–HH:MM)".
func (c *Catalog) Label(id int) string {
	e, ok := c.entries[id]
	if !ok {
		return "#" + strconv.Itoa(id)
	}
	return fmt.Sprintf("%s (%s–%s)", e.shift.Name, e.shift.Start, e.shift.End)
}

// at adds a wall-clock offset to midnight without drifting across DST changes.
func at(midnight time.Time, offset time.Duration) time.Time {
	days := int(offset / (24 * time.Hour))
	rest := offset % (24 * time.Hour)
	h := int(rest / time.Hour)
	m := int((rest % time.Hour) / time.Minute)
	return time.Date(midnight.Year(), midnight.Month(), midnight.Day()+days, h, m, 0, 0, midnight.Location())
}
