package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// DomainComposition prefixes composition identity keys.
// The version suffix allows a future algorithm migration.
const (
	DomainComposition = "mixer/composition/v2"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FieldHash hashes fields byte for byte under domain. Each field is length
// prefixed, so distinct field lists never share an encoding. No
// normalization is applied: fields that differ in any byte hash differently.
func FieldHash(domain string, fields ...string) string {
	var data []byte
	for _, f := range fields {
		data = binary.AppendUvarint(data, uint64(len(f)))
		data = append(data, f...)
	}
	return hashWithDomain(domain, data)
}
