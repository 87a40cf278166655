package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// FlexTime decodes the timestamp layouts the backend emits. Naive
// timestamps (no zone) are read as UTC.
type FlexTime struct {
	time.Time
}

var flexTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func NewFlexTime(t time.Time) *FlexTime {
	return &FlexTime{Time: t}
}

func (f *FlexTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex time: %w", err)
	}
	if raw == "" {
		return nil
	}
	for _, layout := range flexTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			f.Time = t
			return nil
		}
	}
	return fmt.Errorf("flex time: unrecognized timestamp %q", raw)
}

func (f FlexTime) MarshalJSON() ([]byte, error) {
	if f.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Format(time.RFC3339Nano))
}

// Ptr returns nil for a nil or zero FlexTime.
func (f *FlexTime) Ptr() *time.Time {
	if f == nil || f.IsZero() {
		return nil
	}
	t := f.Time
	return &t
}
