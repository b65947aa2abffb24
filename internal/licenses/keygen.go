package licenses

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	keyAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keySegments      = 4
	keySegmentLength = 4
)

// newKey produces a candidate license key, e.g. KYTHIA-A1B2-C3D4-E5F6-G7H8.
// Uniqueness is enforced by the database; callers re-roll on collision.
func newKey(prefix string) (string, error) {
	raw := make([]byte, keySegments*keySegmentLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	var b strings.Builder
	b.WriteString(prefix)
	for i, c := range raw {
		if i%keySegmentLength == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(keyAlphabet[int(c)%len(keyAlphabet)])
	}
	return b.String(), nil
}
