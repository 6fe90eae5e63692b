package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AESEncryptionService seals wallet private keys and merchant webhook
// secrets with AES-256-GCM. Output reads "<key id>:<hex(nonce||sealed)>".
// The key id lets retired keys keep opening old rows after a rotation
// while new rows always use the current key.
type AESEncryptionService struct {
	currentID string
	keys      map[string]cipher.AEAD
}

// NewAESEncryptionService takes the current key and any retired keys, each
// 64 hex characters.
func NewAESEncryptionService(currentHex string, retiredHex ...string) (*AESEncryptionService, error) {
	s := &AESEncryptionService{keys: make(map[string]cipher.AEAD, 1+len(retiredHex))}

	id, err := s.addKey(currentHex)
	if err != nil {
		return nil, fmt.Errorf("current AES key: %w", err)
	}
	s.currentID = id

	for i, k := range retiredHex {
		if _, err := s.addKey(k); err != nil {
			return nil, fmt.Errorf("retired AES key %d: %w", i, err)
		}
	}
	return s, nil
}

func (s *AESEncryptionService) addKey(hexKey string) (string, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(key) != 32 {
		return "", fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(key)
	id := hex.EncodeToString(sum[:4])
	s.keys[id] = aead
	return id, nil
}

func (s *AESEncryptionService) Encrypt(plaintext string) (string, error) {
	aead := s.keys[s.currentID]
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return s.currentID + ":" + hex.EncodeToString(sealed), nil
}

func (s *AESEncryptionService) Decrypt(ciphertext string) (string, error) {
	id, body, ok := strings.Cut(ciphertext, ":")
	if !ok {
		return "", errors.New("ciphertext has no key id")
	}
	aead, ok := s.keys[id]
	if !ok {
		return "", fmt.Errorf("unknown key id %q", id)
	}

	sealed, err := hex.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	n := aead.NonceSize()
	if len(sealed) < n+aead.Overhead() {
		return "", errors.New("ciphertext too short")
	}
	plain, err := aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	return string(plain), nil
}

// Current reports whether ciphertext was sealed with the current key.
func (s *AESEncryptionService) Current(ciphertext string) bool {
	id, _, _ := strings.Cut(ciphertext, ":")
	return id == s.currentID
}
