package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Deadline parses from JSON as either date-only ("2006-01-02") or RFC3339.
// Date-only is stored as start of that day in UTC. Zero means absent.
type Deadline struct{ t time.Time }

func (d *Deadline) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = time.Time{}
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			if layout == "2006-01-02" {
				parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			}
			d.t = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("deadline: use date (YYYY-MM-DD) or RFC3339 datetime")
}

// Time returns the parsed value; zero when the field was absent or null.
func (d Deadline) Time() time.Time { return d.t }

// TaskRequest is the JSON body for POST and PUT /api/tasks. assignedUser is a
// user id in hex; empty or null means unassigned.
type TaskRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Deadline     Deadline `json:"deadline"`
	Completed    bool     `json:"completed"`
	AssignedUser string   `json:"assignedUser"`
}
