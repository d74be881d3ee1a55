package utils

import (
	"regexp"
	"testing"
)

func TestGenerateNumericCode(t *testing.T) {
	digits := regexp.MustCompile(`^[0-9]{6}$`)
	for i := 0; i < 200; i++ {
		code, err := GenerateNumericCode(6)
		if err != nil {
			t.Fatalf("GenerateNumericCode: %v", err)
		}
		if !digits.MatchString(code) {
			t.Fatalf("code %q is not six digits", code)
		}
	}

	for _, length := range []int{0, 3, 13} {
		if _, err := GenerateNumericCode(length); err != ErrInvalidCodeLength {
			t.Errorf("length %d: expected ErrInvalidCodeLength, got %v", length, err)
		}
	}
}

func TestHashCodeBindsOwnerAndPurpose(t *testing.T) {
	base := HashCode("user-a", "email_verify", "123456")
	if base != HashCode("user-a", "email_verify", " 123456 ") {
		t.Fatal("surrounding whitespace must not change the hash")
	}
	if base == HashCode("user-b", "email_verify", "123456") {
		t.Fatal("same code for different owners must hash differently")
	}
	if base == HashCode("user-a", "password_reset", "123456") {
		t.Fatal("same code for different purposes must hash differently")
	}
	if !EqualHashes(base, HashCode("user-a", "email_verify", "123456")) {
		t.Fatal("EqualHashes rejected identical hashes")
	}
	if EqualHashes(base, base[:len(base)-1]) {
		t.Fatal("EqualHashes accepted a truncated hash")
	}
}
