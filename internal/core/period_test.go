package core

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Period
		wantErr bool
	}{
		{name: "valid", input: "2024-03", want: Period{Year: 2024, Month: time.March}},
		{name: "december", input: "2023-12", want: Period{Year: 2023, Month: time.December}},
		{name: "missing month", input: "2024", wantErr: true},
		{name: "bad month", input: "2024-13", wantErr: true},
		{name: "garbage", input: "march 2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeriod(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePeriod(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePeriod(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePeriod(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPeriodEnd(t *testing.T) {
	tests := []struct {
		period  string
		wantDay time.Time
	}{
		{"2024-03", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)},
		{"2024-02", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)}, // leap year
		{"2023-12", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		p, err := ParsePeriod(tt.period)
		if err != nil {
			t.Fatalf("ParsePeriod(%q): %v", tt.period, err)
		}
		if got := p.End(); !got.Equal(tt.wantDay) {
			t.Errorf("Period(%s).End() = %v, want %v", tt.period, got, tt.wantDay)
		}
	}
}

func TestWeekRange(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "midweek",
			now:       time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC), // Wednesday
			wantStart: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "sunday belongs to the previous monday",
			now:       time.Date(2024, 3, 17, 8, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "monday starts its own week",
			now:       time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := WeekRange(tt.now)
			if !r.Start.Equal(tt.wantStart) || !r.End.Equal(tt.wantEnd) {
				t.Errorf("WeekRange(%v) = [%v, %v], want [%v, %v]",
					tt.now, r.Start, r.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestDateRangeValidate(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := (DateRange{Start: start, End: end}).Validate(); err == nil {
		t.Error("expected error for start after end")
	}
	if err := (DateRange{Start: end, End: start}).Validate(); err != nil {
		t.Errorf("unexpected error for valid range: %v", err)
	}
	if err := (DateRange{Start: start, End: start}).Validate(); err != nil {
		t.Errorf("single-day range should be valid: %v", err)
	}
}

func TestValidateCategory(t *testing.T) {
	longest := make([]byte, MaxCategoryLength)
	for i := range longest {
		longest[i] = 'a'
	}

	if err := ValidateCategory(string(longest)); err != nil {
		t.Errorf("80-char category should be accepted: %v", err)
	}
	if err := ValidateCategory(string(longest) + "a"); err == nil {
		t.Error("81-char category should be rejected")
	}
	if err := ValidateCategory("   "); err == nil {
		t.Error("blank category should be rejected")
	}
}
