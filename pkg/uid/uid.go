package uid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateRoomID returns a random 128-bit hex room identifier.
func GenerateRoomID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// GenerateConnectionID returns a random identifier for a live connection.
func GenerateConnectionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("conn-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
