package dataset

import (
	"strings"
)

// Parse turns CSV text into header-keyed records.
//
// The first line is the header. Blank lines are skipped. Fields may be wrapped in
// double quotes to protect commas; doubled quotes inside a quoted field are not
// unescaped. Any malformed line aborts the whole parse.
func Parse(text string) ([]Record, error) {
	_, records, err := ParseWithHeader(text)
	return records, err
}

// ParseWithHeader is Parse that also returns the header fields in file order.
// Empty text yields a nil header and no records.
func ParseWithHeader(text string) ([]string, []Record, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, []Record{}, nil
	}

	header, err := parseLine(lines[0], 1)
	if err != nil {
		return nil, nil, err
	}

	records := make([]Record, 0, len(lines)-1)
	for i, line := range lines[1:] {
		lineNo := i + 2
		if strings.TrimSpace(line) == "" {
			continue
		}

		values, err := parseLine(line, lineNo)
		if err != nil {
			return nil, nil, err
		}
		if len(values) != len(header) {
			return nil, nil, &SchemaError{Line: lineNo, Expected: len(header), Got: len(values)}
		}

		record := make(Record, len(header))
		for j, column := range header {
			record[column] = values[j]
		}
		records = append(records, record)
	}

	return header, records, nil
}

// Header returns the column names of the first line of text.
func Header(text string) ([]string, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, nil
	}
	return parseLine(lines[0], 1)
}

func splitLines(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// parseLine splits a single line into fields. Lines without quotes take the
// plain comma split; both paths yield the same fields for such lines.
func parseLine(line string, lineNo int) ([]string, error) {
	if !strings.Contains(line, `"`) {
		return strings.Split(line, ","), nil
	}

	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	// Bytes, not runes: invalid UTF-8 must come through as it does on the fast path.
	for i := 0; i < len(line); i++ {
		switch b := line[i]; {
		case b == '"':
			inQuotes = !inQuotes
		case b == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(b)
		}
	}

	if inQuotes {
		return nil, &MalformedFieldError{Line: lineNo, Text: line}
	}

	return append(fields, current.String()), nil
}
