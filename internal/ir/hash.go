package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity. Version suffix enables
// future algorithm migration.
const (
	DomainProgram = "reach/program/v1"
	DomainBundle  = "reach/bundle/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramHash computes the content-addressed identity of an elaborated
// program from its canonical JSON. The hash is stable across runs given
// the same source bundle.
func ProgramHash(p *Program) (string, error) {
	data, err := p.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainProgram, data), nil
}

// BundleHash computes the content-addressed identity of a serialized
// source bundle. Used as the compile-cache key.
func BundleHash(raw []byte) string {
	return hashWithDomain(DomainBundle, raw)
}
