package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is the only entity persisted by the system.
// Records are create-only: nothing in the application updates or deletes one.
type Record struct {
	Year  Year   `json:"year"`
	Title string `json:"title"`
	ID    string `json:"id"`
}

// Complete reports whether all three fields are populated.
func (r Record) Complete() bool {
	return r.ID != "" && r.Year != "" && r.Title != ""
}

// Year is the decimal text of a numeric year, the form a number attribute takes in the table.
// It decodes from a JSON number or string and always encodes as a JSON string.
type Year string

// YearOf returns the Year for an integer year.
func YearOf(y int) Year {
	return Year(strconv.Itoa(y))
}

// String implements fmt.Stringer.
func (y Year) String() string {
	return string(y)
}

// MarshalJSON encodes the year as a JSON string.
func (y Year) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(y))
}

// UnmarshalJSON accepts 2023 as well as "2023".
func (y *Year) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("year: empty value")
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("year: %w", err)
		}
		*y = Year(s)
		return nil
	case 'n':
		// null leaves the year unset
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("year: %w", err)
		}
		*y = Year(n.String())
		return nil
	}
}
