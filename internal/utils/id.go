package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// ShortID returns a best-effort unique short identifier, used for
// anonymous display names and similar non-authoritative tags.
func ShortID() string {
	const size = 4

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}

	// Fallback to timestamp if crypto/rand is unavailable.
	return strconv.FormatInt(time.Now().UnixNano()%100000000, 10)
}
