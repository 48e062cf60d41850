package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(token_address|action|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(tokenAddress string, action string, timestampMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", tokenAddress, action, timestampMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
