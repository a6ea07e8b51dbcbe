package helpers

import (
	"crypto/md5"
	"fmt"
)

// Hash is an utility to determine a MD5 hash (acceptable as not used for security reasons).
func Hash(bytes []byte) string {
	h := md5.New()
	h.Write(bytes)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ShortHash returns the first 8 characters of the hash of a text.
// Used to identify a diagram source in logs without dumping it.
func ShortHash(text string) string {
	return Hash([]byte(text))[0:8]
}
