package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTemplate = "gmod/template/v1"
	DomainModule   = "gmod/module/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TemplateHash identifies stored template source. The source is NFC
// normalized first so visually identical uploads share a hash.
func TemplateHash(source []byte) string {
	return hashWithDomain(DomainTemplate, norm.NFC.Bytes(source))
}

// ModuleDigest computes a stable digest of a module description.
// Two syntheses of the same template against the same interfaces yield the
// same digest.
func ModuleDigest(m *Module) (string, error) {
	canonical, err := MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("ModuleDigest: %w", err)
	}
	return hashWithDomain(DomainModule, canonical), nil
}
