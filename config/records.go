package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"fsclean/rule"
)

// FieldSeparator separates the fields of a line in the rules file.
const FieldSeparator = ":"

// ReadRecords reads a rules file. Every line that is neither blank nor a
// "#" comment is one record of colon separated fields:
//
//	MODE:ROOT:SCOPE:CONDITION:DAYS:ACTION
//
// Field count and values are not checked here; see rule.Parse.
func ReadRecords(path string) ([]rule.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()

	var recs []rule.Record
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, FieldSeparator)
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		recs = append(recs, rule.Record{Source: path, Line: line, Fields: fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rules file %s: %w", path, err)
	}
	return recs, nil
}
