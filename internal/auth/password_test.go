package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", 10)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("password not hashed")
	}

	if err := VerifyPassword("correct horse battery staple", hash); err != nil {
		t.Errorf("VerifyPassword with correct password: %v", err)
	}
	if err := VerifyPassword("wrong password", hash); err == nil {
		t.Error("wrong password verified")
	}
}

func TestHashPasswordInvalidCostFallsBack(t *testing.T) {
	hash, err := HashPassword("pw", 99)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := VerifyPassword("pw", hash); err != nil {
		t.Errorf("VerifyPassword: %v", err)
	}
}
