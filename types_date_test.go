package taxlots

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := NewDate(2025, 7, 31)
	d2 := NewDate(2025, 7, 31)

	if d1.time() != d2.time() {
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Date
		err      bool
	}{
		{"2025-01-15", NewDate(2025, time.January, 15), false},
		{"2025-7-1", NewDate(2025, time.July, 1), false},
		{" 2021-03-04 ", NewDate(2021, time.March, 4), false},
		{"2021-03-04T15:30:00+0100", NewDate(2021, time.March, 4), false},
		{"invalid-date", Date{}, true},
		{"-1d", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.err {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.err)
				return
			}
			if !tt.err && got != tt.expected {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDate_DaysUntil(t *testing.T) {
	tests := []struct {
		from, to Date
		want     int
	}{
		{NewDate(2023, 1, 10), NewDate(2023, 1, 10), 0},
		{NewDate(2023, 1, 10), NewDate(2023, 3, 15), 64},
		{NewDate(2024, 2, 28), NewDate(2024, 3, 1), 2}, // leap year
		{NewDate(2023, 3, 15), NewDate(2023, 1, 10), -64},
	}
	for _, tt := range tests {
		if got := tt.from.DaysUntil(tt.to); got != tt.want {
			t.Errorf("%v.DaysUntil(%v) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestDate_AddYears(t *testing.T) {
	if got, want := NewDate(2023, 5, 17).AddYears(1), NewDate(2024, 5, 17); got != want {
		t.Errorf("AddYears(1) = %v, want %v", got, want)
	}
	if got, want := NewDate(2024, 2, 29).AddYears(1), NewDate(2025, 3, 1); got != want {
		t.Errorf("AddYears(1) = %v, want %v", got, want)
	}
}

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected Date
		wantErr  bool
	}{
		{
			name:     "Zero Date from empty string",
			json:     `""`,
			expected: Date{},
			wantErr:  false,
		},
		{
			name:     "Non-Zero Date",
			json:     `"2024-05-21"`,
			expected: NewDate(2024, 5, 21),
			wantErr:  false,
		},
		{
			name:    "Invalid Date",
			json:    `"not-a-date"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.json), &d)
			if (err != nil) != tt.wantErr {
				t.Errorf("json.Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && d != tt.expected {
				t.Errorf("json.Unmarshal() got = %v, want %v", d, tt.expected)
			}
		})
	}
}

func TestDate_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		date     Date
		expected string
	}{
		{"Zero Date", Date{}, `""`},
		{"Non-Zero Date", NewDate(2024, 5, 21), `"2024-05-21"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.date)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("json.Marshal() got = %s, want %s", got, tt.expected)
			}
		})
	}
}
