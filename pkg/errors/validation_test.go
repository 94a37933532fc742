package errors

import (
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid uuid", "0b7e2c0e-7df4-4c59-9d88-2a3f3c1d9b0e", false},
		{"valid builtin", "$sub-grid", false},
		{"valid with spaces inside", "sales chart", false},
		{"valid unicode", "übersicht", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"leading space", " foo", true},
		{"trailing space", "foo ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID("instance", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidID) {
				t.Errorf("ValidateID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidID)
			}
		})
	}
}

func TestValidateIDKindInMessage(t *testing.T) {
	err := ValidateTemplateID("")
	if err == nil {
		t.Fatal("expected error for empty template id")
	}
	if !strings.Contains(UserMessage(err), "template") {
		t.Errorf("message %q should name the id kind", UserMessage(err))
	}

	err = ValidateInstanceID("")
	if !strings.Contains(UserMessage(err), "instance") {
		t.Errorf("message %q should name the id kind", UserMessage(err))
	}
}
