package room

import (
	"crypto/rand"
	"math/big"
	"net/url"
	"strings"
)

const (
	codeLength = 12
	// no 0/O, 1/l/I to keep codes readable when typed by hand
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

// NewCode returns a random room code drawn from codeAlphabet.
func NewCode() (string, error) {
	size := big.NewInt(int64(len(codeAlphabet)))
	var b strings.Builder
	b.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// InviteURL builds the link a host shares with an opponent.
func InviteURL(base, code string) string {
	return strings.TrimRight(base, "/") + "/?room=" + url.QueryEscape(code)
}
