package logging

import (
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"
)

// hashPrefixLen is how many hex characters of the digest appear in logs.
// Long enough to distinguish users in a deployment, short enough to
// stay readable.
const hashPrefixLen = 12

// HashUserID returns a stable short hash of a user identifier.
func HashUserID(userID string) string {
	if userID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])[:hashPrefixLen]
}

// UserID returns a zap field carrying the hashed form of a user
// identifier. Raw identifiers never reach log output.
func UserID(key, userID string) zap.Field {
	return zap.String(key, HashUserID(userID))
}
