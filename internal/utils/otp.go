package utils

import (
	"crypto/rand" // secure random number generation
	"fmt"
	"math/big"
)

// otpDigits is the length of generated reset codes.  Six digits gives a
// million-code space; combined with the short TTL and rate limiting on the
// verify endpoint this keeps blind guessing impractical.
const otpDigits = 6

// GenerateOTP returns a uniformly random numeric code of otpDigits digits,
// left-padded with zeros.  Collisions across users are harmless because
// codes are stored per e-mail address and each new code overwrites the
// previous one.
func GenerateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}
