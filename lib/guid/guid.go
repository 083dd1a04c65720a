/*
	Quick little random identifier strings, for when you need a
	probably-unique name for a scratch dir and zero ceremony.
*/
package guid

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

const size = 26

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

func New() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err) // the system's entropy source is gone; nothing sane to do
	}
	return strings.ToLower(encoding.EncodeToString(b[:]))
}
