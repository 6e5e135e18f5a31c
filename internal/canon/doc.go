// Package canon provides the canonical JSON encoding used for every
// content-addressed identity in tenure.
//
// Run fingerprints, configuration digests, and random-stream seeds are all
// computed as SHA-256 over canonical bytes with domain separation:
//
//	SHA256(domain + 0x00 + MarshalCanonical(v))
//
// The encoding follows RFC 8785:
//   - Object keys sorted by UTF-16 code units
//   - No HTML escaping
//   - Strings NFC-normalized
//   - No floats and no null
//
// Floats are rejected because their textual form is not stable across
// encoders. Callers that carry fractional configuration (rent fractions,
// flip rates) encode them with FormatFloat before hashing.
package canon
