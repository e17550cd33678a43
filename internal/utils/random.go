package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RandomCodeString returns uppercase characters from an alphabet without
// the easily confused 0/O and 1/I.
func RandomCodeString(length int) string {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			panic(err)
		}
		b[i] = codeAlphabet[num.Int64()]
	}
	return string(b)
}

// NewBookingCode builds a short human-readable code such as "WEB-K3J9QZ7HD".
// The first six characters after the prefix derive from the timestamp,
// the last three are random.
func NewBookingCode(prefix string, now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	return prefix + ts + RandomCodeString(3)
}
