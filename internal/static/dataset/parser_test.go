package dataset

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse_UnquotedRows(t *testing.T) {
	text := "RL100-Code,RL100-Langname,Typ-Kurz\nFFU,Frankfurt (Main) Hbf,Bf\nFF,Frankfurt-Süd,Hp\nAA,Hamburg-Altona,Bf\n"

	records, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	wantKeys := []string{"RL100-Code", "RL100-Langname", "Typ-Kurz"}
	for i, r := range records {
		if len(r) != len(wantKeys) {
			t.Errorf("record %d has %d keys, expected %d", i, len(r), len(wantKeys))
		}
		for _, k := range wantKeys {
			if _, ok := r[k]; !ok {
				t.Errorf("record %d is missing key %q", i, k)
			}
		}
	}

	if got := records[1].Get("RL100-Langname"); got != "Frankfurt-Süd" {
		t.Errorf("records[1] name = %q, expected %q", got, "Frankfurt-Süd")
	}
}

func TestParse_Lines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Record
	}{
		{
			name: "empty input",
			text: "",
			want: []Record{},
		},
		{
			name: "header only",
			text: "a,b\n",
			want: []Record{},
		},
		{
			name: "whitespace around input",
			text: "\n\n  a,b\n1,2\n\n  \n",
			want: []Record{{"a": "1", "b": "2"}},
		},
		{
			name: "blank lines between rows",
			text: "a,b\n1,2\n\n   \n3,4",
			want: []Record{{"a": "1", "b": "2"}, {"a": "3", "b": "4"}},
		},
		{
			name: "quoted field with comma",
			text: "code,name\nXY,\"Berlin, Ost\"",
			want: []Record{{"code": "XY", "name": "Berlin, Ost"}},
		},
		{
			name: "quoted header",
			text: "\"code\",\"name\"\nXY,Z",
			want: []Record{{"code": "XY", "name": "Z"}},
		},
		{
			name: "quote in the middle of a field",
			text: "a,b\nx\"1,2\"y,z",
			want: []Record{{"a": "x1,2y", "b": "z"}},
		},
		{
			name: "doubled quotes are not unescaped",
			text: "a,b\n\"say \"\"hi\"\"\",z",
			want: []Record{{"a": "say hi", "b": "z"}},
		},
		{
			name: "empty fields",
			text: "a,b,c\n,,",
			want: []Record{{"a": "", "b": "", "c": ""}},
		},
		{
			name: "crlf line endings",
			text: "a,b\r\n1,2\r\n3,\"4\"\r\n",
			want: []Record{{"a": "1", "b": "2"}, {"a": "3", "b": "4"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.text)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tc.text, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Parse(%q) = %v, expected %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestParse_MalformedField(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantLine int
	}{
		{"unterminated in data row", "a,b\n1,2\n\"3,4\n5,6", 3},
		{"unterminated in header", "\"a,b\n1,2", 1},
		{"odd quote count", "a,b\n1,\"2\"\"", 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			records, err := Parse(tc.text)
			if records != nil {
				t.Errorf("expected no records, got %v", records)
			}
			var mfe *MalformedFieldError
			if !errors.As(err, &mfe) {
				t.Fatalf("expected MalformedFieldError, got %v", err)
			}
			if mfe.Line != tc.wantLine {
				t.Errorf("error line = %d, expected %d", mfe.Line, tc.wantLine)
			}
		})
	}
}

func TestParse_SchemaError(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
		got      int
	}{
		{"too few fields", "a,b,c\n1,2,3\n4,5", 3, 2},
		{"too many fields", "a,b\n1,2,3", 2, 3},
		{"quoted comma changes count", "a,b,c\n\"1,2\",3", 3, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			records, err := Parse(tc.text)
			if records != nil {
				t.Errorf("expected no partial records, got %v", records)
			}
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			if se.Expected != tc.expected || se.Got != tc.got {
				t.Errorf("SchemaError{Expected: %d, Got: %d}, expected {%d, %d}", se.Expected, se.Got, tc.expected, tc.got)
			}
		})
	}
}

func TestParseLine_FastPathMatchesQuotedPath(t *testing.T) {
	lines := []string{"", "a", "a,b", ",,", "Frankfurt (Main) Hbf,FFU,Bf", "a\xff,b", "Zürich,\xc3", "München Hbf,MH"}

	for _, line := range lines {
		fast, err := parseLine(line, 1)
		if err != nil {
			t.Fatalf("parseLine(%q) returned error: %v", line, err)
		}
		// Wrapping the whole line in a no-op pair of quotes at the end forces the
		// quote-aware path without changing the fields.
		slow, err := parseLine(line+`""`, 1)
		if err != nil {
			t.Fatalf("parseLine(%q) returned error: %v", line+`""`, err)
		}
		if !reflect.DeepEqual(fast, slow) {
			t.Errorf("fast path %v differs from quote-aware path %v for %q", fast, slow, line)
		}
	}
}

func TestHeader(t *testing.T) {
	got, err := Header("  RL100-Code,RL100-Langname\nFFU,Frankfurt")
	if err != nil {
		t.Fatalf("Header returned error: %v", err)
	}
	want := []string{"RL100-Code", "RL100-Langname"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Header = %v, expected %v", got, want)
	}

	if got, err := Header(" \n "); err != nil || got != nil {
		t.Errorf("Header of blank text = %v, %v; expected nil, nil", got, err)
	}
}

func TestParseWithHeader(t *testing.T) {
	header, records, err := ParseWithHeader("RL100-Code,RL100-Langname\r\nFFU,\"Frankfurt, Main\"\r\n")
	if err != nil {
		t.Fatalf("ParseWithHeader returned error: %v", err)
	}
	if want := []string{"RL100-Code", "RL100-Langname"}; !reflect.DeepEqual(header, want) {
		t.Errorf("header = %v, expected %v", header, want)
	}
	if len(records) != 1 || records[0]["RL100-Langname"] != "Frankfurt, Main" {
		t.Errorf("records = %v", records)
	}

	header, records, err = ParseWithHeader("RL100-Code,RL100-Langname")
	if err != nil || len(header) != 2 || len(records) != 0 {
		t.Errorf("header-only = %v, %v, %v", header, records, err)
	}

	header, records, err = ParseWithHeader("")
	if err != nil || header != nil || records == nil || len(records) != 0 {
		t.Errorf("empty = %v, %#v, %v", header, records, err)
	}

	if _, _, err := ParseWithHeader("A,B\n1"); err == nil {
		t.Error("expected schema error")
	}
}

func TestParse_InvalidUTF8IsKeptVerbatim(t *testing.T) {
	records, err := Parse("code,name\nX\xff,\"a\xfe,b\"")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := records[0]["code"]; got != "X\xff" {
		t.Errorf("code = %q, expected %q", got, "X\xff")
	}
	if got := records[0]["name"]; got != "a\xfe,b" {
		t.Errorf("name = %q, expected %q", got, "a\xfe,b")
	}
}
