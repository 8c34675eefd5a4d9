package document

import (
	"fmt"
	"hash/fnv"
)

// Fingerprint computes a fast non-cryptographic digest of content, rendered
// as eight lowercase hex characters. It exists to answer "did the content
// actually change", not to address or authenticate it.
func Fingerprint(content []byte) string {
	h := fnv.New32a()
	h.Write(content)
	return fmt.Sprintf("%08x", h.Sum32())
}

// FingerprintString is Fingerprint for string content.
func FingerprintString(content string) string {
	return Fingerprint([]byte(content))
}
