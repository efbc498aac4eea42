package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// GenerateID generates a new prefixed unique ID, e.g. "ord-1a2b3c4d"
func GenerateID(prefix string) string {
	id := uuid.New().String()

	return fmt.Sprintf("%s-%s", prefix, id[:8])
}

// GenerateOTP returns a 6-digit one-time code in [100000, 999999]
func GenerateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand failing means the process is in serious trouble
		panic(fmt.Sprintf("otp generation: %v", err))
	}

	return fmt.Sprintf("%06d", n.Int64()+100000)
}

// GetCurrentTime returns the current time in UTC
func GetCurrentTime() time.Time {
	return time.Now().UTC()
}
