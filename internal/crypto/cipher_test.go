package crypto

import (
	"encoding/hex"
	"errors"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := NewMessageCipher("test-secret")

	for _, plaintext := range []string{"hello", "", "MaskON 🎭 unicode", "a longer message with\nnewlines and spaces"} {
		ciphertext, iv, err := c.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q) failed: %v", plaintext, err)
		}
		if ciphertext == "" || iv == "" {
			t.Fatalf("Encrypt(%q) returned empty ciphertext or iv", plaintext)
		}

		got, err := c.Decrypt(ciphertext, iv)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if got != plaintext {
			t.Errorf("round trip mismatch: got %q, want %q", got, plaintext)
		}
	}
}

func TestIVUniqueness(t *testing.T) {
	c := NewMessageCipher("test-secret")

	ct1, iv1, err := c.Encrypt("same message")
	if err != nil {
		t.Fatal(err)
	}
	ct2, iv2, err := c.Encrypt("same message")
	if err != nil {
		t.Fatal(err)
	}

	if iv1 == iv2 {
		t.Error("two encryptions of the same plaintext used the same iv")
	}
	if ct1 == ct2 {
		t.Error("two encryptions of the same plaintext produced identical ciphertext")
	}
}

func TestWrongKeyFailsSafely(t *testing.T) {
	c1 := NewMessageCipher("secret-one")
	c2 := NewMessageCipher("secret-two")

	ciphertext, iv, err := c1.Encrypt("confidential")
	if err != nil {
		t.Fatal(err)
	}

	_, err = c2.Decrypt(ciphertext, iv)
	if err == nil {
		t.Fatal("decryption with wrong key should fail")
	}
	if !errors.Is(err, ErrDecryption) {
		t.Errorf("expected ErrDecryption, got %v", err)
	}
}

func TestTamperedCiphertextDetected(t *testing.T) {
	c := NewMessageCipher("test-secret")

	ciphertext, iv, err := c.Encrypt("original text")
	if err != nil {
		t.Fatal(err)
	}

	// Flip one byte in the middle of the ciphertext
	raw, _ := hex.DecodeString(ciphertext)
	raw[len(raw)/2] ^= 0xff
	tampered := hex.EncodeToString(raw)

	_, err = c.Decrypt(tampered, iv)
	if !errors.Is(err, ErrDecryption) {
		t.Errorf("tampered ciphertext should surface ErrDecryption, got %v", err)
	}
}

func TestMalformedInput(t *testing.T) {
	c := NewMessageCipher("test-secret")

	if _, err := c.Decrypt("not-hex!", "0000"); !errors.Is(err, ErrDecryption) {
		t.Errorf("malformed ciphertext: expected ErrDecryption, got %v", err)
	}
	if _, err := c.Decrypt("abcd", "deadbeef"); !errors.Is(err, ErrDecryption) {
		t.Errorf("short iv: expected ErrDecryption, got %v", err)
	}
	if _, err := c.Decrypt("", "00112233445566778899aabbccddeeff"); !errors.Is(err, ErrDecryption) {
		t.Errorf("truncated ciphertext: expected ErrDecryption, got %v", err)
	}
}

func TestKeyDerivationDeterministic(t *testing.T) {
	c1 := NewMessageCipher("shared")
	c2 := NewMessageCipher("shared")

	ciphertext, iv, err := c1.Encrypt("cross-instance")
	if err != nil {
		t.Fatal(err)
	}
	got, err := c2.Decrypt(ciphertext, iv)
	if err != nil {
		t.Fatalf("second instance with same secret failed to decrypt: %v", err)
	}
	if got != "cross-instance" {
		t.Errorf("got %q, want %q", got, "cross-instance")
	}
}
