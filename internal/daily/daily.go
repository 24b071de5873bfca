// internal/daily/daily.go
//
// Deterministic "number of the day": every player guessing on the same UTC
// date and difficulty chases the same secret.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/robalobadob/desktools/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// SecretFor maps HMAC(salt, date|difficulty) into [d.Min, d.Max].
func SecretFor(date time.Time, salt string, d game.Difficulty) int {
	span := d.Max - d.Min + 1
	if span <= 0 {
		return d.Min
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date) + "|" + d.Key))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for modulus distribution
	n := binary.BigEndian.Uint64(sum[:8])
	return d.Min + int(n%uint64(span))
}
