package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// signaturePrefix names the MAC so merchants can reject unknown schemes.
const signaturePrefix = "sha256="

// HMACSignatureService signs webhook bodies with the merchant's secret.
// Signatures read "sha256=<hex>".
type HMACSignatureService struct{}

func NewHMACSignatureService() *HMACSignatureService {
	return &HMACSignatureService{}
}

func (s *HMACSignatureService) Sign(secret, payload string) string {
	return signaturePrefix + hex.EncodeToString(mac(secret, payload))
}

// Verify compares in constant time and rejects unprefixed signatures.
func (s *HMACSignatureService) Verify(secret, payload, signature string) bool {
	digest, ok := strings.CutPrefix(signature, signaturePrefix)
	if !ok {
		return false
	}
	got, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}
	return hmac.Equal(mac(secret, payload), got)
}

func mac(secret, payload string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return h.Sum(nil)
}

// webhookSigningInput binds the event type to the data so a captured body
// cannot be replayed under another event.
func webhookSigningInput(event string, data []byte) string {
	return event + "." + string(data)
}
