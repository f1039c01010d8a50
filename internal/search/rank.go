package search

import "strings"

// rule reports whether an entry satisfies one ranking criterion for a query.
// An entry that satisfies a rule sorts ahead of one that does not.
type rule func(q query, e *Entry) bool

// rules are applied in order; the first one that tells two entries apart
// decides their order.
var rules = []rule{
	// exact name
	func(q query, e *Entry) bool { return e.LowercaseName == q.lower },
	// exact code
	func(q query, e *Entry) bool { return e.Code == q.upper },
	func(q query, e *Entry) bool { return !e.IsInactive },
	func(q query, e *Entry) bool { return e.TypeShort == TypeStation },
	func(q query, e *Entry) bool { return e.TypeShort == TypeStop },
	func(q query, e *Entry) bool { return e.IsMainStation },
	// name prefix
	func(q query, e *Entry) bool { return strings.HasPrefix(e.LowercaseName, q.lower) },
	// code prefix
	func(q query, e *Entry) bool { return strings.HasPrefix(e.Code, q.upper) },
}

// compare orders a before b (-1), after b (1), or reports them equal-ranked (0).
func (q query) compare(a, b *Entry) int {
	for _, r := range rules {
		ra, rb := r(q, a), r(q, b)
		switch {
		case ra && !rb:
			return -1
		case !ra && rb:
			return 1
		}
	}
	return 0
}
