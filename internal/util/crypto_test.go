package util

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	password := "admin123"

	hashed, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hashed, "$2") {
		t.Errorf("hash %q is not a bcrypt hash", hashed)
	}

	if _, err := HashPassword("", bcrypt.MinCost); err == nil {
		t.Error("HashPassword(\"\") error = nil, want error")
	}

	hashed2, _ := HashPassword(password, bcrypt.MinCost)
	if hashed == hashed2 {
		t.Error("same password produced the same hash")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "TestPass456"
	hashed, _ := HashPassword(password, bcrypt.MinCost)

	if !CheckPassword(password, hashed) {
		t.Error("correct password rejected")
	}
	if CheckPassword("WrongPass", hashed) {
		t.Error("wrong password accepted")
	}
	if CheckPassword("", hashed) {
		t.Error("empty password accepted")
	}
	if CheckPassword(password, "") {
		t.Error("empty hash accepted")
	}
	if CheckPassword(password, "invalid-format") {
		t.Error("malformed hash accepted")
	}
}

func TestRandomString(t *testing.T) {
	str, err := RandomString(32)
	if err != nil {
		t.Fatalf("RandomString() error = %v", err)
	}
	if len(str) != 32 {
		t.Errorf("len = %d, want 32", len(str))
	}

	str2, _ := RandomString(32)
	if str == str2 {
		t.Error("two calls returned the same string")
	}

	if _, err := RandomString(0); err == nil {
		t.Error("RandomString(0) error = nil, want error")
	}
	if _, err := RandomString(-5); err == nil {
		t.Error("RandomString(-5) error = nil, want error")
	}
}

func TestEncryptDecryptAES(t *testing.T) {
	key := "test-encryption-key"

	testCases := []string{
		"Hello World",
		"دينار عراقي",
		"",
		"Special!@#$%^&*()",
		strings.Repeat("A", 1000),
	}

	for _, plaintext := range testCases {
		encrypted, err := EncryptAES(key, []byte(plaintext))
		if err != nil {
			t.Fatalf("EncryptAES(%q) error = %v", plaintext, err)
		}
		decrypted, err := DecryptAES(key, encrypted)
		if err != nil {
			t.Fatalf("DecryptAES(%q) error = %v", plaintext, err)
		}
		if string(decrypted) != plaintext {
			t.Errorf("round trip = %q, want %q", decrypted, plaintext)
		}
	}
}

func TestEncryptAES_DifferentKeys(t *testing.T) {
	plaintext := []byte("Secret Data")

	encrypted1, _ := EncryptAES("key1", plaintext)
	encrypted2, _ := EncryptAES("key2", plaintext)

	if string(encrypted1) == string(encrypted2) {
		t.Error("different keys produced the same ciphertext")
	}
}

func TestDecryptAES_WrongKey(t *testing.T) {
	encrypted, _ := EncryptAES("correct-key", []byte("Data"))

	if _, err := DecryptAES("wrong-key", encrypted); err == nil {
		t.Error("DecryptAES with wrong key error = nil, want error")
	}
}

func TestDecryptAES_InvalidData(t *testing.T) {
	key := "test-key"

	if _, err := DecryptAES(key, []byte{1, 2, 3}); err == nil {
		t.Error("short input error = nil, want error")
	}
	if _, err := DecryptAES(key, []byte{}); err == nil {
		t.Error("empty input error = nil, want error")
	}
}

func TestEncryptString(t *testing.T) {
	enc, err := EncryptString("audit-key", "POST /api/transactions")
	if err != nil {
		t.Fatalf("EncryptString() error = %v", err)
	}
	if strings.Contains(enc, "/api/") {
		t.Errorf("ciphertext %q leaks the plaintext", enc)
	}
	plain, err := DecryptString("audit-key", enc)
	if err != nil {
		t.Fatalf("DecryptString() error = %v", err)
	}
	if plain != "POST /api/transactions" {
		t.Errorf("DecryptString() = %q", plain)
	}
	if _, err := DecryptString("audit-key", "%%%"); err == nil {
		t.Error("DecryptString(bad base64) error = nil, want error")
	}
}

func BenchmarkEncryptAES(b *testing.B) {
	key := "bench-key"
	data := []byte("Benchmark data")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = EncryptAES(key, data)
	}
}
