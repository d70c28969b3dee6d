package intel

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SERPSignature hashes the ordered result URLs. A reordering of the same URLs
// counts as a change.
func SERPSignature(urls []string) string {
	h := sha256.New()
	for _, u := range urls {
		h.Write([]byte(strings.TrimSpace(u)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
