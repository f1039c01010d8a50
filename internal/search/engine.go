package search

import (
	"slices"
	"strings"

	"github.com/mini-rodalies-3d/ril100/internal/static/dataset"
)

// DefaultLimit is the page size when not all results are requested.
const DefaultLimit = 100

// Result is one page of ranked matches.
type Result struct {
	Entries []Entry
	// Total counts every match, including those cut off by the page limit.
	Total int
}

// Remaining is the number of matches left off this page.
func (r Result) Remaining() int {
	return r.Total - len(r.Entries)
}

// Dataset is an immutable snapshot of indexed entries. It is safe for
// concurrent searches.
type Dataset struct {
	entries []Entry
	byCode  map[string]int
}

// NewDataset indexes records once for repeated searching.
func NewDataset(records []dataset.Record) (*Dataset, error) {
	entries, err := Index(records)
	if err != nil {
		return nil, err
	}

	byCode := make(map[string]int, len(entries))
	for i, e := range entries {
		if _, dup := byCode[e.Code]; !dup {
			byCode[e.Code] = i
		}
	}
	return &Dataset{entries: entries, byCode: byCode}, nil
}

// Len returns the number of entries.
func (d *Dataset) Len() int {
	return len(d.entries)
}

// Search ranks the entries matching query. See Search.
func (d *Dataset) Search(query string, showAll bool) Result {
	return Search(d.entries, query, showAll)
}

// Lookup returns the first entry whose code equals code exactly.
func (d *Dataset) Lookup(code string) (Entry, bool) {
	i, ok := d.byCode[code]
	if !ok {
		return Entry{}, false
	}
	return d.entries[i], true
}

// query is a trimmed search string in both cases used for matching.
type query struct {
	lower string
	upper string
}

func newQuery(raw string) query {
	raw = strings.TrimSpace(raw)
	return query{
		lower: strings.ToLower(raw),
		upper: strings.ToUpper(raw),
	}
}

func (q query) matches(e *Entry) bool {
	return strings.Contains(e.Code, q.upper) || strings.Contains(e.LowercaseName, q.lower)
}

// Search returns the entries whose code contains the uppercased query or whose
// name contains the lowercased query, best match first. Unless showAll is set,
// only the first DefaultLimit matches are returned. entries is not modified.
func Search(entries []Entry, rawQuery string, showAll bool) Result {
	q := newQuery(rawQuery)

	matches := make([]Entry, 0)
	for i := range entries {
		if q.matches(&entries[i]) {
			matches = append(matches, entries[i])
		}
	}

	slices.SortStableFunc(matches, func(a, b Entry) int {
		return q.compare(&a, &b)
	})

	total := len(matches)
	if !showAll && total > DefaultLimit {
		matches = matches[:DefaultLimit]
	}
	return Result{Entries: matches, Total: total}
}
