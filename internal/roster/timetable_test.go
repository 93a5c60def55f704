package roster

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timetableCSV = `Class,M,T,W,Th,F,Sa
6am_class,06:00,,06:00,,06:00,
noon_class,12:00,12:00,12:00,12:00,12:00,10:00
evening_class,,17:30,,17:30,,bad-cell
`

func writeTimetable(t *testing.T, contents string) *CSVTimetableSource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timetable.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return &CSVTimetableSource{Path: path, Location: time.UTC}
}

func TestClassTimesForTodayPicksWeekdayColumn(t *testing.T) {
	src := writeTimetable(t, timetableCSV)

	// 2026-08-28 is a Friday
	friday := time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC)
	classTimes, err := src.ClassTimesForToday(friday)
	require.NoError(t, err)

	require.Len(t, classTimes, 2)
	assert.Equal(t, time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC), classTimes["6am_class"])
	assert.Equal(t, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC), classTimes["noon_class"])
}

func TestClassTimesForTodayDropsBlankAndBadCells(t *testing.T) {
	src := writeTimetable(t, timetableCSV)

	// 2026-08-29 is a Saturday: 6am blank, evening cell unparseable
	saturday := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC)
	classTimes, err := src.ClassTimesForToday(saturday)
	require.NoError(t, err)

	require.Len(t, classTimes, 1)
	assert.Contains(t, classTimes, "noon_class")
}

func TestClassTimesForTodaySundayIsEmpty(t *testing.T) {
	src := writeTimetable(t, timetableCSV)

	sunday := time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC)
	classTimes, err := src.ClassTimesForToday(sunday)
	require.NoError(t, err)
	assert.Empty(t, classTimes)
}

func TestClassTimesForTodayMissingColumnIsEmpty(t *testing.T) {
	src := writeTimetable(t, "Class,M,T\nx,06:00,07:00\n")

	friday := time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC)
	classTimes, err := src.ClassTimesForToday(friday)
	require.NoError(t, err)
	assert.Empty(t, classTimes)
}

func TestClassNames(t *testing.T) {
	src := writeTimetable(t, timetableCSV)

	names, err := src.ClassNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"6am_class", "noon_class", "evening_class"}, names)
}
