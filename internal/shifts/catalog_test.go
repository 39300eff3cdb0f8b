package shifts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hozur/internal/model"
)

func TestNewCatalogValidation(t *testing.T) {
	tests := []struct {
		name string
		list []model.Shift
		err  string
	}{
		{"empty", nil, "no shifts defined"},
		{"zero id", []model.Shift{{ID: 0, Start: "08:00", End: "16:00"}}, "id must be positive"},
		{"duplicate", []model.Shift{{ID: 1, Start: "08:00", End: "16:00"}, {ID: 1, Start: "16:00", End: "24:00"}}, "duplicate id 1"},
		{"bad start", []model.Shift{{ID: 1, Start: "8am", End: "16:00"}}, "shift[0].start"},
		{"bad end", []model.Shift{{ID: 1, Start: "08:00", End: "25:00"}}, "out of range"},
		{"start at 24", []model.Shift{{ID: 1, Start: "24:00", End: "08:00"}}, "only valid as an end time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.list, time.UTC)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestCatalogStartEnd(t *testing.T) {
	c := MustDefault(time.UTC)

	start, err := c.Start("2026-03-10", 1)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), start)

	end, err := c.End("2026-03-10", 2)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), end)

	end, err = c.End("2026-03-10", 3)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), end)

	_, err = c.Start("2026-03-10", 9)
	assert.Error(t, err)
	_, err = c.Start("10.03.2026", 1)
	assert.Error(t, err)
}

func TestCatalogWrapsPastMidnight(t *testing.T) {
	c, err := NewCatalog([]model.Shift{
		{ID: 1, Name: "Day", Start: "06:00", End: "22:00"},
		{ID: 2, Name: "Night", Start: "22:00", End: "06:00"},
	}, time.UTC)
	require.NoError(t, err)

	end, err := c.End("2026-03-10", 2)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC), end)

	s, ok := c.Current(time.Date(2026, 3, 11, 2, 30, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 2, s.ID)

	s, ok = c.Current(time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 1, s.ID)
}

func TestCatalogCurrentDefaults(t *testing.T) {
	c := MustDefault(time.UTC)
	day := func(h, m int) time.Time { return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC) }

	cases := map[time.Time]int{
		day(0, 0):   3,
		day(7, 59):  3,
		day(8, 0):   1,
		day(15, 59): 1,
		day(16, 0):  2,
		day(23, 59): 2,
	}
	for now, want := range cases {
		s, ok := c.Current(now)
		require.True(t, ok, now.String())
		assert.Equal(t, want, s.ID, now.Format("15:04"))
	}
}

func TestCatalogGaps(t *testing.T) {
	c, err := NewCatalog([]model.Shift{{ID: 1, Start: "09:00", End: "17:00"}}, time.UTC)
	require.NoError(t, err)

	_, ok := c.Current(time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC))
	assert.False(t, ok)

	s, _ := c.Get(1)
	assert.Equal(t, "Shift 1", s.Name)
	assert.Equal(t, "Shift 1 (09:00–17:00)", c.Label(1))
	assert.Equal(t, "#4", c.Label(4))
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)

	d, err = ParseClock(" 7:45 ")
	require.NoError(t, err)
	assert.Equal(t, 7*time.Hour+45*time.Minute, d)

	for _, bad := range []string{"", "12", "12:5", "24:01", "-1:00", "aa:bb"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}
