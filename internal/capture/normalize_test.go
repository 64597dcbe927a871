package capture

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple lowercase",
			input: "Home Repairs",
			want:  "home repairs",
		},
		{
			name:  "trim whitespace",
			input: "  family  ",
			want:  "family",
		},
		{
			name:  "collapse internal whitespace",
			input: "side    project",
			want:  "side project",
		},
		{
			name:  "tabs and newlines",
			input: "deep\t\n  work",
			want:  "deep work",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n   ",
			want:  "",
		},
		{
			name:  "unicode characters",
			input: "  ÉTÉ   Jardin  ",
			want:  "été jardin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCountChars(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"hello", 5},
		{"", 0},
		{"café", 4},
		{"日本語", 3},
	}

	for _, tt := range tests {
		if got := CountChars(tt.input); got != tt.want {
			t.Errorf("CountChars(%q) = %d, want %d (len=%d bytes)", tt.input, got, tt.want, len(tt.input))
		}
	}
}

func TestValidators(t *testing.T) {
	if !IsValidStatus(StatusDoneToday) || IsValidStatus("done") {
		t.Error("IsValidStatus mismatch")
	}
	if !IsValidPriority(PriorityMedium) || IsValidPriority("critical") {
		t.Error("IsValidPriority mismatch")
	}
	if !IsValidCategory(CategoryPurple) || IsValidCategory("blue") {
		t.Error("IsValidCategory mismatch")
	}
	if !IsValidType(TypeHabit) || IsValidType("event") {
		t.Error("IsValidType mismatch")
	}
	if !IsDone(StatusCompleted) || !IsDone(StatusDoneToday) || IsDone(StatusReview) {
		t.Error("IsDone mismatch")
	}
}

func TestCategoryFromLetter(t *testing.T) {
	tests := []struct {
		letter byte
		want   Category
		ok     bool
	}{
		{'R', CategoryRed, true},
		{'y', CategoryYellow, true},
		{'P', CategoryPurple, true},
		{'g', CategoryGreen, true},
		{'B', "", false},
	}

	for _, tt := range tests {
		got, ok := CategoryFromLetter(tt.letter)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CategoryFromLetter(%q) = (%q, %v), want (%q, %v)", tt.letter, got, ok, tt.want, tt.ok)
		}
	}
}
