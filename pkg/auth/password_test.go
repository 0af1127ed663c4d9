package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "correct-horse" {
		t.Fatal("hash must not equal the plain password")
	}

	if err := CheckPassword(hash, "correct-horse"); err != nil {
		t.Errorf("matching password should verify: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Error("wrong password must not verify")
	}
	if err := CheckPassword("not-a-hash", "correct-horse"); err == nil {
		t.Error("malformed hash must not verify")
	}
}
