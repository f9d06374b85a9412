// Package crypto seals short values, such as session tokens, for storage on the client.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidKey is returned for keys that are not 32 bytes.
	ErrInvalidKey = errors.New("encryption key must be 32 bytes for AES-256")
	// ErrMalformed is returned by Open for values that were not produced by Seal with the same key.
	ErrMalformed = errors.New("sealed value is malformed or was tampered with")
)

// Sealer encrypts with AES-256-CBC and authenticates with HMAC-SHA256 (encrypt-then-MAC).
// The output is URL-safe base64 of IV || ciphertext || tag.
type Sealer struct {
	block  cipher.Block
	macKey []byte
}

// NewSealer creates a Sealer from a 32-byte key. The MAC key is derived from it.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("quillpost session mac"))
	return &Sealer{block: block, macKey: mac.Sum(nil)}, nil
}

// Seal encrypts plainText with a fresh random IV.
func (s *Sealer) Seal(plainText string) (string, error) {
	padded := pad([]byte(plainText))

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	out := make([]byte, aes.BlockSize+len(padded), aes.BlockSize+len(padded)+sha256.Size)
	copy(out, iv)
	cipher.NewCBCEncrypter(s.block, iv).CryptBlocks(out[aes.BlockSize:], padded)
	out = append(out, s.tag(out)...)

	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open verifies and decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrMalformed
	}
	if len(raw) < 2*aes.BlockSize+sha256.Size {
		return "", ErrMalformed
	}

	body, tag := raw[:len(raw)-sha256.Size], raw[len(raw)-sha256.Size:]
	if !hmac.Equal(tag, s.tag(body)) {
		return "", ErrMalformed
	}

	iv, cipherText := body[:aes.BlockSize], body[aes.BlockSize:]
	if len(cipherText)%aes.BlockSize != 0 {
		return "", ErrMalformed
	}
	plain := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(s.block, iv).CryptBlocks(plain, cipherText)

	unpadded, err := unpad(plain)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func (s *Sealer) tag(data []byte) []byte {
	mac := hmac.New(sha256.New, s.macKey)
	mac.Write(data)
	return mac.Sum(nil)
}

// pad applies PKCS#7 padding.
func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrMalformed
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, ErrMalformed
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrMalformed
		}
	}
	return data[:len(data)-n], nil
}
