package errors

import (
	"strings"
	"testing"
)

func TestValidateCourseCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "CC101", false},
		{"long numeric", "1ACC0216", false},
		{"with dash", "MA-264", false},
		{"with dot", "CS.101", false},

		{"empty", "", true},
		{"too long", strings.Repeat("A", 65), true},
		{"separator", "CS101|CS", true},
		{"slash", "CS/101", true},
		{"traversal", "..", true},
		{"query", "CS101?x=1", true},
		{"space", "CS 101", true},
		{"control char", "CS\x01101", true},
		{"leading dash", "-CS101", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCourseCode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCourseCode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidCourseCode) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidCourseCode)
			}
		})
	}
}

func TestValidateProgram(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "Ingeniería de Software", false},
		{"acronym", "CS", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"separator", "CS|EE", true},
		{"slash", "CS/EE", true},
		{"newline", "CS\nEE", true},
		{"too long", strings.Repeat("x", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProgram(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProgram(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "6f1c1f5e-9a43-4a53-9b5c-0d7e4c1b8a11", false},
		{"empty", "", true},
		{"traversal", "../admin", true},
		{"slash", "a/b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUserID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUserID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://complejidad-recomendador.onrender.com", false},
		{"http", "http://localhost:8000", false},
		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"no scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
