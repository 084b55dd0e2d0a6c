// File: utils/refcode.go
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeAlphabet excludes I, O, 0 and 1, which are easy to misread when a
// booker shares a code over the phone.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// MaxCodeAttempts bounds the collision-check retry loop for unique codes.
const MaxCodeAttempts = 5

func randomCode(length int) string {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform entropy source is broken.
			panic(fmt.Sprintf("refcode: entropy source unavailable: %v", err))
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf)
}

// NewBookingCode returns a fresh booking reference code, e.g. "BK-7XQ4".
func NewBookingCode() string {
	return "BK-" + randomCode(4)
}

// NewReceiptID returns a fresh payment receipt identifier, e.g. "RC-N8Q2V7XH".
func NewReceiptID() string {
	return "RC-" + randomCode(8)
}

// NewPSPRef returns a simulated provider transaction reference.
func NewPSPRef() string {
	return "pp_" + randomCode(14)
}

// GenerateUniqueCode draws codes from gen until exists reports a free one,
// giving up after MaxCodeAttempts draws so a saturated code space surfaces
// as an error instead of an infinite loop.
func GenerateUniqueCode(gen func() string, exists func(string) (bool, error)) (string, error) {
	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		code := gen()
		taken, err := exists(code)
		if err != nil {
			return "", fmt.Errorf("refcode: collision check failed: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("refcode: exhausted %d attempts without a free code", MaxCodeAttempts)
}
