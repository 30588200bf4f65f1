package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateBookingReference builds a booking reference: the current date
// as YYYYMMDD followed by 4 random uppercase base-36 characters, e.g.
// 20260901K3XZ. Uniqueness is enforced by the bookings table; on a
// collision the caller retries with a fresh reference.
func GenerateBookingReference(now time.Time) string {
	suffix := make([]byte, 4)
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			suffix[i] = base36Alphabet[int(now.UnixNano()+int64(i))%len(base36Alphabet)]
			continue
		}
		suffix[i] = base36Alphabet[n.Int64()]
	}

	return now.Format("20060102") + string(suffix)
}

// GeneratePaymentReference builds an internal payment reference:
// STAYA_<unix-millis>_<8 hex chars>
func GeneratePaymentReference() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("STAYA_%d_%08x", time.Now().UnixMilli(), time.Now().UnixNano()&0xffffffff)
	}

	return fmt.Sprintf("STAYA_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(b))
}
