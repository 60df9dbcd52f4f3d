package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"studyroom-backend/internal/model"
)

var (
	roomRe      = regexp.MustCompile(`^([A-Za-z]+\d*)\s*[-_ ]?\s*(\d{3,4})$`)
	timeRangeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*-\s*(\d{1,2}):(\d{2})$`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// DateLayout is the calendar date format used by slots and reservations.
const DateLayout = "2006-01-02"

// ParsedRoom holds the structured data parsed from a room identifier.
type ParsedRoom struct {
	Building string
	Floor    int
	Number   string
}

// ParseRoom splits an identifier such as "B1-203" into building "B1",
// floor 2 and number "203". The floor is the room number without its last
// two digits.
func ParseRoom(raw string) (ParsedRoom, error) {
	s := strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))
	m := roomRe.FindStringSubmatch(s)
	if m == nil {
		return ParsedRoom{}, fmt.Errorf("unable to parse room: %q", raw)
	}

	number := m[2]
	floor, err := strconv.Atoi(number[:len(number)-2])
	if err != nil {
		return ParsedRoom{}, fmt.Errorf("unable to parse floor from room: %q", raw)
	}
	return ParsedRoom{Building: strings.ToUpper(m[1]), Floor: floor, Number: number}, nil
}

// ParseDate checks that raw is a YYYY-MM-DD calendar date.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", raw)
	}
	return d, nil
}

// NormalizeTimeRange validates a label such as "13:00 - 15:00" and returns it
// in the canonical "13:00-15:00" form. The end must be after the start.
func NormalizeTimeRange(raw string) (string, error) {
	m := timeRangeRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", fmt.Errorf("invalid time range %q: want HH:MM-HH:MM", raw)
	}

	var parts [4]int
	for i := range parts {
		parts[i], _ = strconv.Atoi(m[i+1])
	}
	startH, startM, endH, endM := parts[0], parts[1], parts[2], parts[3]
	if startH > 23 || endH > 24 || startM > 59 || endM > 59 || (endH == 24 && endM != 0) {
		return "", fmt.Errorf("invalid time range %q: out of range", raw)
	}
	if endH*60+endM <= startH*60+startM {
		return "", fmt.Errorf("invalid time range %q: end must be after start", raw)
	}
	return fmt.Sprintf("%02d:%02d-%02d:%02d", startH, startM, endH, endM), nil
}

// Descriptor validates d and returns its normalized form: trimmed fields,
// upper-cased room id and a canonical time range.
func Descriptor(d model.Descriptor) (model.Descriptor, error) {
	out := model.Descriptor{
		RoomID:      strings.ToUpper(strings.TrimSpace(d.RoomID)),
		Campus:      strings.TrimSpace(d.Campus),
		Date:        strings.TrimSpace(d.Date),
		Description: strings.TrimSpace(d.Description),
	}
	if out.RoomID == "" {
		return model.Descriptor{}, fmt.Errorf("room id is required")
	}
	if out.Campus == "" {
		return model.Descriptor{}, fmt.Errorf("campus is required")
	}
	if _, err := ParseDate(out.Date); err != nil {
		return model.Descriptor{}, err
	}
	tr, err := NormalizeTimeRange(d.TimeRange)
	if err != nil {
		return model.Descriptor{}, err
	}
	out.TimeRange = tr
	return out, nil
}
