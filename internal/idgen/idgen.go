// Package idgen creates short collision-resistant IDs for projects, issues,
// tasks, and checklist items. IDs are hash-based with base36 encoding for
// density: prj-x7k2q, tsk-09baf.
package idgen

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Prefixes for each entity kind.
const (
	ProjectPrefix   = "prj"
	IssuePrefix     = "iss"
	TaskPrefix      = "tsk"
	ChecklistPrefix = "chk"
)

// DefaultLength is the hash portion length in base36 characters.
const DefaultLength = 5

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// encodeBase36 converts bytes to a fixed-length base36 string, zero-padded
// on the left and truncated to the least significant digits when longer.
func encodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)

	base := big.NewInt(36)
	zero := big.NewInt(0)
	mod := new(big.Int)

	chars := make([]byte, 0, length)
	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}
	for i, j := 0, len(chars)-1; i < j; i, j = i+1, j-1 {
		chars[i], chars[j] = chars[j], chars[i]
	}

	s := string(chars)
	if len(s) < length {
		s = strings.Repeat("0", length-len(s)) + s
	}
	if len(s) > length {
		s = s[len(s)-length:]
	}
	return s
}

// New generates an ID like "tsk-8d8e3". The nonce disambiguates on the rare
// collision; callers bump it and retry.
func New(prefix, title string, timestamp time.Time, nonce int) string {
	content := fmt.Sprintf("%s|%d|%d", title, timestamp.UnixNano(), nonce)
	hash := sha256.Sum256([]byte(content))
	return prefix + "-" + encodeBase36(hash[:4], DefaultLength)
}

// NewChecklistItem generates a checklist item ID scoped to its task.
func NewChecklistItem(taskID, text string, nonce int) string {
	content := fmt.Sprintf("%s|%s|%d", taskID, text, nonce)
	hash := sha256.Sum256([]byte(content))
	return ChecklistPrefix + "-" + encodeBase36(hash[:4], DefaultLength)
}
