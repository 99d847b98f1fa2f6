package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrDecryption is returned whenever a ciphertext/iv pair cannot be decrypted:
// malformed input, truncation, tampering, or a different key. Callers check it
// with errors.Is; garbage plaintext is never returned.
var ErrDecryption = errors.New("message decryption failed")

const ivSize = 16

// MessageCipher encrypts chat message bodies at rest with AES-256-GCM.
// Each message gets a fresh random 16-byte IV, stored next to the ciphertext.
type MessageCipher struct {
	key []byte
}

// NewMessageCipher derives a 32-byte key from the shared secret via SHA-256.
// Same secret always yields the same key.
func NewMessageCipher(secret string) *MessageCipher {
	key := sha256.Sum256([]byte(secret))
	return &MessageCipher{key: key[:]}
}

func (c *MessageCipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, ivSize)
}

// Encrypt encrypts plaintext and returns hex-encoded ciphertext and IV.
// The caller must persist both; the IV is required for decryption and is not
// derivable from the key.
func (c *MessageCipher) Encrypt(plaintext string) (ciphertext, iv string, err error) {
	aead, err := c.aead()
	if err != nil {
		return "", "", err
	}

	nonce := make([]byte, ivSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", "", fmt.Errorf("failed to generate iv: %w", err)
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), hex.EncodeToString(nonce), nil
}

// Decrypt is the inverse of Encrypt. Any failure surfaces as ErrDecryption.
func (c *MessageCipher) Decrypt(ciphertext, iv string) (string, error) {
	nonce, err := hex.DecodeString(iv)
	if err != nil || len(nonce) != ivSize {
		return "", fmt.Errorf("%w: malformed iv", ErrDecryption)
	}

	data, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: malformed ciphertext", ErrDecryption)
	}

	aead, err := c.aead()
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, nonce, data, nil)
	if err != nil {
		return "", fmt.Errorf("%w: invalid auth tag or corrupted data", ErrDecryption)
	}
	return string(plaintext), nil
}
