package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// CSVTimetableSource reads the class timetable spreadsheet. The first
// column holds the class name, the remaining columns one weekday each
// (M,T,W,Th,F,Sa) with the class start as a 24h HH:MM cell. Blank or
// unparseable cells mean the class does not run that day.
type CSVTimetableSource struct {
	Path     string
	Location *time.Location
}

func (s *CSVTimetableSource) ClassTimesForToday(now time.Time) (map[string]time.Time, error) {
	col, ok := weekdayColumn(now.Weekday())
	if !ok {
		// Sunday: no classes
		return map[string]time.Time{}, nil
	}

	rows, headers, err := s.read()
	if err != nil {
		return nil, err
	}

	dayIdx := -1
	for i, h := range headers {
		if h == col {
			dayIdx = i
		}
	}
	if dayIdx == -1 {
		// no column for today: zero classes, not an error
		return map[string]time.Time{}, nil
	}

	loc := s.Location
	if loc == nil {
		loc = now.Location()
	}

	classTimes := make(map[string]time.Time)
	for _, row := range rows {
		name := strings.TrimSpace(row[0])
		cell := strings.TrimSpace(row[dayIdx])
		if name == "" || cell == "" {
			continue
		}
		parsed, err := time.Parse("15:04", cell)
		if err != nil {
			// class does not run today
			continue
		}
		classTimes[name] = time.Date(now.Year(), now.Month(), now.Day(),
			parsed.Hour(), parsed.Minute(), 0, 0, loc)
	}

	return classTimes, nil
}

func (s *CSVTimetableSource) ClassNames() ([]string, error) {
	rows, _, err := s.read()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := strings.TrimSpace(row[0]); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *CSVTimetableSource) read() ([][]string, []string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open timetable file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read timetable header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read timetable row: %w", err)
		}
		if len(record) != len(headers) {
			continue
		}
		rows = append(rows, record)
	}

	return rows, headers, nil
}

func weekdayColumn(d time.Weekday) (string, bool) {
	switch d {
	case time.Monday:
		return "M", true
	case time.Tuesday:
		return "T", true
	case time.Wednesday:
		return "W", true
	case time.Thursday:
		return "Th", true
	case time.Friday:
		return "F", true
	case time.Saturday:
		return "Sa", true
	default:
		return "", false
	}
}
