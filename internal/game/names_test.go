package game

import "testing"

func TestNameValidatorRejections(t *testing.T) {
	v := NewNameValidator(NameRules{
		MinLength: 3,
		MaxLength: 12,
		Reserved:  []string{"admin", "System"},
		Blocked:   []string{"darn"},
	})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "Username cannot be empty."},
		{"too short", "Al", "Username must be at least 3 characters long."},
		{"too long", "Bartholomew_the_3rd", "Username must be no more than 12 characters long."},
		{"space", "Al ice", "Username can only contain letters, numbers, underscores, and hyphens."},
		{"punctuation", "Alice!", "Username can only contain letters, numbers, underscores, and hyphens."},
		{"non ascii", "Zoë_x", "Username can only contain letters, numbers, underscores, and hyphens."},
		{"reserved", "ADMIN", "That username is reserved. Please choose another."},
		{"reserved folded", "system", "That username is reserved. Please choose another."},
		{"blocked substring", "xDarnx", "That username is not allowed. Please choose another."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.in)
			if err == nil {
				t.Fatalf("Validate(%q) accepted, want %q", tt.in, tt.want)
			}
			if err.Error() != tt.want {
				t.Fatalf("Validate(%q) = %q, want %q", tt.in, err.Error(), tt.want)
			}
		})
	}
}

func TestNameValidatorAccepts(t *testing.T) {
	v := NewNameValidator(NameRules{})

	for _, name := range []string{"Alice", "TestUser1", "bob_the-2nd", "abc"} {
		note, err := v.Validate(name)
		if err != nil {
			t.Fatalf("Validate(%q) rejected: %v", name, err)
		}
		if note != "" {
			t.Fatalf("Validate(%q) note = %q, want none", name, note)
		}
	}
}

func TestNameValidatorLeadingDigitNote(t *testing.T) {
	v := NewNameValidator(NameRules{})
	note, err := v.Validate("7seas")
	if err != nil {
		t.Fatalf("Validate rejected: %v", err)
	}
	if note == "" {
		t.Fatalf("expected an advisory note for a leading digit")
	}
}

func TestNameValidatorDefaults(t *testing.T) {
	v := NewNameValidator(NameRules{MinLength: 0, MaxLength: 0})
	if _, err := v.Validate("ab"); err == nil {
		t.Fatalf("two-character name accepted with default minimum")
	}
	if _, err := v.Validate("abcdefghijklmnopqrstu"); err == nil {
		t.Fatalf("21-character name accepted with default maximum")
	}
}

func TestSameNameIgnoresCase(t *testing.T) {
	if !SameName("Alice", " aLICE ") {
		t.Fatalf("SameName should fold case and trim")
	}
	if SameName("Alice", "Alicia") {
		t.Fatalf("different names compared equal")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword(""); err == nil || err.Error() != "Password cannot be blank." {
		t.Fatalf("blank password: %v", err)
	}
	if err := ValidatePassword("12345"); err == nil || err.Error() != "Password must be at least 6 characters." {
		t.Fatalf("short password: %v", err)
	}
	if err := ValidatePassword("hunter22"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
}
