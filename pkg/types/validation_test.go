package types

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName_Valid(t *testing.T) {
	cases := []string{
		"Jo",
		"John Doe",
		"A. P. J. Abdul Kalam",
		strings.Repeat("a", 100),
	}

	for _, name := range cases {
		got, err := ValidateName(name)
		if err != nil {
			t.Errorf("ValidateName(%q) error = %v, want nil", name, err)
		}
		if got != name {
			t.Errorf("ValidateName(%q) = %q, want unchanged", name, got)
		}
	}
}

func TestValidateName_Invalid(t *testing.T) {
	cases := []string{
		"",
		"J",
		strings.Repeat("a", 101),
		"John3",
		"John_Doe",
		"John-Doe",
		"名前",
	}

	for _, name := range cases {
		if _, err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) error = nil, want error", name)
		}
	}
}

func TestValidateName_Sanitizes(t *testing.T) {
	got, err := ValidateName("  John\x00 Doe\x1f ")
	if err != nil {
		t.Fatalf("ValidateName() error = %v", err)
	}
	if got != "John Doe" {
		t.Errorf("ValidateName() = %q, want %q", got, "John Doe")
	}
}

func TestValidateRoll_Boundaries(t *testing.T) {
	for _, roll := range []string{"a", strings.Repeat("A", 30)} {
		if _, err := ValidateRoll(roll); err != nil {
			t.Errorf("ValidateRoll(%q) error = %v, want nil", roll, err)
		}
	}

	for _, roll := range []string{"", strings.Repeat("A", 31)} {
		if _, err := ValidateRoll(roll); err == nil {
			t.Errorf("ValidateRoll(%q) error = nil, want error", roll)
		}
	}
}

func TestValidateRoll_Normalizes(t *testing.T) {
	got, err := ValidateRoll("abc-123")
	if err != nil {
		t.Fatalf("ValidateRoll(abc-123) error = %v", err)
	}
	if got != "ABC-123" {
		t.Errorf("ValidateRoll(abc-123) = %q, want ABC-123", got)
	}
}

func TestValidateRoll_Invalid(t *testing.T) {
	cases := []string{"AB 12", "AB_12", "AB@12", "AB.12"}

	for _, roll := range cases {
		if _, err := ValidateRoll(roll); err == nil {
			t.Errorf("ValidateRoll(%q) error = nil, want error", roll)
		}
	}
}

func TestValidationErrors_WrapBase(t *testing.T) {
	if _, err := ValidateName("x"); !errors.Is(err, ErrValidation) {
		t.Errorf("name error should wrap ErrValidation, got %v", err)
	}
	if _, err := ValidateRoll(""); !errors.Is(err, ErrValidation) {
		t.Errorf("roll error should wrap ErrValidation, got %v", err)
	}
}

func TestSanitizeText(t *testing.T) {
	got := SanitizeText(" \tabc\x7fdef\n ")
	if got != "abcdef" {
		t.Errorf("SanitizeText() = %q, want %q", got, "abcdef")
	}
}
