// Package uniuri generates random strings from crypto/rand, used for
// generated passwords and opaque identifiers.
package uniuri

import (
	"crypto/rand"
	"math/big"
)

const (
	// StdLen is the length of strings returned by New.
	StdLen = 16
	// PasswordLen is the length of generated passwords.
	PasswordLen = 12
)

var (
	lower   = []byte("abcdefghijkmnopqrstuvwxyz")
	upper   = []byte("ABCDEFGHJKLMNPQRSTUVWXYZ")
	digits  = []byte("23456789")
	symbols = []byte("!@#$%*-_+?")

	// StdChars is the alphabet of New.
	StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")
)

// New returns a random string of StdLen characters from StdChars.
func New() string {
	return NewLenChars(StdLen, StdChars)
}

// NewLenChars returns a random string of length characters drawn uniformly from chars.
func NewLenChars(length int, chars []byte) string {
	if len(chars) < 2 { //nolint:mnd
		panic("uniuri: charset needs at least two characters")
	}

	out := make([]byte, length)
	for i := range out {
		out[i] = chars[index(len(chars))]
	}

	return string(out)
}

// Password returns a random password of at least four characters holding one
// lower-case letter, one upper-case letter, one digit and one symbol.
// Look-alike characters are left out.
func Password(length int) string {
	classes := [][]byte{lower, upper, digits, symbols}
	if length < len(classes) {
		length = len(classes)
	}

	var all []byte
	for _, c := range classes {
		all = append(all, c...)
	}

	out := make([]byte, length)
	for i := range out {
		if i < len(classes) {
			out[i] = classes[i][index(len(classes[i]))]
			continue
		}

		out[i] = all[index(len(all))]
	}

	// Fisher-Yates so the guaranteed characters do not sit up front.
	for i := len(out) - 1; i > 0; i-- {
		j := index(i + 1)
		out[i], out[j] = out[j], out[i]
	}

	return string(out)
}

func index(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("uniuri: error reading random bytes: " + err.Error())
	}

	return int(v.Int64())
}
