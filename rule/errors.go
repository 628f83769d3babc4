package rule

import "fmt"

// FormatError is returned for a record that does not have exactly six fields.
type FormatError struct {
	Source string
	Line   int
	Fields int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: invalid rule format: expected %d fields, got %d", location(e.Source, e.Line), FieldCount, e.Fields)
}

// ValueError is returned when a field holds a value outside its allowed set.
type ValueError struct {
	Source string
	Line   int
	Field  string
	Value  string
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: invalid %s %q: %s", location(e.Source, e.Line), e.Field, e.Value, e.Reason)
}

func location(source string, line int) string {
	if source == "" {
		source = "rule"
	}
	if line <= 0 {
		return source
	}
	return fmt.Sprintf("%s:%d", source, line)
}
