package element

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainTree separates element tree fingerprints from any other hash.
const DomainTree = "reconcile/tree/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a content hash of the tree rooted at e.
// Structurally identical trees always share a fingerprint.
func Fingerprint(e *Element) (string, error) {
	canonical, err := MarshalCanonical(e)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainTree, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
func MustFingerprint(e *Element) string {
	fp, err := Fingerprint(e)
	if err != nil {
		panic(err)
	}
	return fp
}
