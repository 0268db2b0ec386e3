package share

import (
	"strings"
	"testing"
)

func TestNewUID_LengthAndAlphabet(t *testing.T) {
	uid, err := NewUID()
	if err != nil {
		t.Fatalf("NewUID() error = %v", err)
	}
	if len(uid) != UIDLength {
		t.Fatalf("len(uid) = %d, want %d", len(uid), UIDLength)
	}
	for _, r := range uid {
		if !strings.ContainsRune(uidAlphabet, r) {
			t.Errorf("uid %q contains %q, not in alphabet", uid, r)
		}
	}
}

func TestNewUID_ExcludesAmbiguousCharacters(t *testing.T) {
	for _, forbidden := range "0OI1l" {
		if strings.ContainsRune(uidAlphabet, forbidden) {
			t.Errorf("alphabet contains ambiguous character %q", forbidden)
		}
	}
}

// A thousand draws must all be well-formed and pairwise distinct. Collisions
// are astronomically unlikely at 57^8, so a duplicate here means the
// generator is broken, not unlucky.
func TestNewUID_ThousandDistinct(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		uid, err := NewUID()
		if err != nil {
			t.Fatalf("NewUID() error = %v", err)
		}
		if !ValidUID(uid) {
			t.Fatalf("NewUID() produced invalid uid %q", uid)
		}
		if seen[uid] {
			t.Fatalf("duplicate uid %q after %d draws", uid, i)
		}
		seen[uid] = true
	}
}

func TestValidUID(t *testing.T) {
	tests := []struct {
		uid  string
		want bool
	}{
		{"abcd2345", true},
		{"ABCDwxyz", true},
		{"abc", false},        // too short
		{"abcd23456", false},  // too long
		{"abcd234O", false},   // ambiguous O
		{"abcd234!", false}, // non-alphabet byte
	}

	for _, tt := range tests {
		if got := ValidUID(tt.uid); got != tt.want {
			t.Errorf("ValidUID(%q) = %v, want %v", tt.uid, got, tt.want)
		}
	}
}
