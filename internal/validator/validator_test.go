package validator

import "testing"

func TestVar_customTags(t *testing.T) {
	tests := []struct {
		name  string
		value string
		tag   string
		ok    bool
	}{
		{"username ok", "alice.b_c-1", "username", true},
		{"username too short", "al", "username", false},
		{"username bad char", "alice smith", "username", false},
		{"role owner", "owner", "pos_role", true},
		{"role legacy case", "Admin", "pos_role", true},
		{"role unknown", "superuser", "pos_role", false},
		{"pin four", "1234", "pin", true},
		{"pin six", "123456", "pin", true},
		{"pin seven", "1234567", "pin", false},
		{"pin letters", "12ab", "pin", false},
		{"email", "alice@example.com", "email", true},
		{"email bad", "alice@", "email", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Var(tt.value, tt.tag)
			if tt.ok && err != nil {
				t.Errorf("expected %q to pass %s, got %v", tt.value, tt.tag, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("expected %q to fail %s", tt.value, tt.tag)
			}
		})
	}
}
