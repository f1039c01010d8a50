package models

import (
	"net/url"
	"strings"

	"github.com/mini-rodalies-3d/ril100/internal/search"
)

// TrassenfinderBase is the route planner page for an operating point.
const TrassenfinderBase = "https://trassenfinder.de/apn/"

// Entry is the JSON view of one operating point
type Entry struct {
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	Type           string            `json:"type"`
	OperatingState string            `json:"operatingState"`
	Inactive       bool              `json:"inactive"`
	MainStation    bool              `json:"mainStation"`
	Link           string            `json:"link"`
	Fields         map[string]string `json:"fields,omitempty"`
}

// NewEntry builds the JSON view of a search entry.
func NewEntry(e search.Entry) Entry {
	return Entry{
		Code:           e.Code,
		Name:           e.LongName,
		Type:           e.TypeShort,
		OperatingState: e.OperatingState,
		Inactive:       e.IsInactive,
		MainStation:    e.IsMainStation,
		Link:           TrassenfinderURL(e.Code),
		Fields:         e.Fields,
	}
}

// NewEntries converts a page of search entries.
func NewEntries(entries []search.Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewEntry(e))
	}
	return out
}

// TrassenfinderURL links a code to its Trassenfinder page. Spaces in codes
// become underscores.
func TrassenfinderURL(code string) string {
	return TrassenfinderBase + url.PathEscape(strings.ReplaceAll(code, " ", "_"))
}
