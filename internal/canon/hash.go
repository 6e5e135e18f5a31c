package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows algorithm migration without collisions.
const (
	DomainStream = "tenure/stream/v1"
	DomainConfig = "tenure/config/v1"
	DomainRun    = "tenure/run/v1"
)

// Sum computes SHA256(domain + 0x00 + canonical(v)).
// The null separator prevents domain/data boundary ambiguity.
func Sum(domain string, v any) ([32]byte, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return [32]byte{}, fmt.Errorf("canonical %s: %w", domain, err)
	}
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Digest is Sum rendered as lowercase hex.
func Digest(domain string, v any) (string, error) {
	sum, err := Sum(domain, v)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum[:]), nil
}

// MustDigest is like Digest but panics on error.
// Use only when v is built from canon values known to be valid.
func MustDigest(domain string, v any) string {
	d, err := Digest(domain, v)
	if err != nil {
		panic(err)
	}
	return d
}
