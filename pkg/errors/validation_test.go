package errors

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "Luuk", false},
		{"valid with space", "Luuk Withagen", false},
		{"valid unicode", "Zoë Ångström", false},
		{"valid punctuation", "DJ O'Neil & co.", false},

		{"empty", "", true},
		{"whitespace", "   ", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"tab", "foo\tbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("member", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidManifest) {
				t.Errorf("ValidateName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidManifest)
			}
		})
	}
}

func TestValidateColor(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"#fff", false},
		{"#ff8800", false},
		{"#ff880080", false},
		{"orange", false},
		{"rgb(255, 0, 0)", false},
		{"hsla(120, 50%, 50%, 0.3)", false},

		{"", true},
		{"#ggg", true},
		{"#12345", true},
		{"red; stroke: blue", true},
		{"url(javascript:x)", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

type tagged struct {
	Name  string   `validate:"required"`
	Items []string `validate:"min=1,dive,required"`
	Ratio float64  `validate:"gte=0,lte=1"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name     string
		in       tagged
		wantErr  bool
		contains string
	}{
		{
			name: "valid",
			in:   tagged{Name: "a", Items: []string{"x"}, Ratio: 0.5},
		},
		{
			name:     "missing name",
			in:       tagged{Items: []string{"x"}},
			wantErr:  true,
			contains: "Name is required",
		},
		{
			name:     "no items",
			in:       tagged{Name: "a"},
			wantErr:  true,
			contains: "Items must have at least 1 entries",
		},
		{
			name:     "ratio too large",
			in:       tagged{Name: "a", Items: []string{"x"}, Ratio: 2},
			wantErr:  true,
			contains: "Ratio must be <= 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(ErrCodeInvalidConfig, tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !Is(err, ErrCodeInvalidConfig) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidConfig)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.contains)
			}
		})
	}
}
