package events

import (
	"strings"
	"time"
)

// ConsoleRecord is one captured page console message.
type ConsoleRecord struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	// Location is "url:line" when the browser reported a source location.
	Location string `json:"location,omitempty"`
}

// ConsoleFilter matches records whose type equals filter or whose text
// contains it, both case-insensitively. An empty filter matches everything.
func ConsoleFilter(filter string) func(ConsoleRecord) bool {
	if filter == "" {
		return nil
	}
	needle := strings.ToLower(filter)
	return func(r ConsoleRecord) bool {
		return strings.ToLower(r.Type) == needle || strings.Contains(strings.ToLower(r.Text), needle)
	}
}
