package platform

import (
	"crypto/rand"
	"math/big"
)

const (
	passwordLower   = "abcdefghijkmnopqrstuvwxyz"
	passwordUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	passwordDigits  = "23456789"
	passwordSymbols = "!@#$%"
)

// NewPassword generates an initial account password of the given length with
// at least one character from each class. Ambiguous characters (l, I, O, 0, 1)
// are excluded. Length is clamped to a minimum of 8.
func NewPassword(length int) string {
	if length < 8 {
		length = 8
	}
	all := passwordLower + passwordUpper + passwordDigits + passwordSymbols

	b := make([]byte, length)
	b[0] = randChar(passwordLower)
	b[1] = randChar(passwordUpper)
	b[2] = randChar(passwordDigits)
	b[3] = randChar(passwordSymbols)
	for i := 4; i < length; i++ {
		b[i] = randChar(all)
	}
	shuffle(b)
	return string(b)
}

func randChar(set string) byte {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		panic("crypto/rand: " + err.Error())
	}
	return set[n.Int64()]
}

func shuffle(b []byte) {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			panic("crypto/rand: " + err.Error())
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
}
