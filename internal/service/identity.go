package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// MatchIDLength is the number of hex characters kept from the digest.
const MatchIDLength = 32

// MatchID derives the stable id of a match from its date and opponent.
// Event, format, time and link do not take part, so a rescheduled kick-off
// on the same day keeps its id.
func MatchID(date, opponent string) string {
	data := fmt.Sprintf("%s|%s", strings.TrimSpace(date), normalizeName(opponent))
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])[:MatchIDLength]
}

var nonAlphaNum = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
var whitespace = regexp.MustCompile(`\s+`)

func normalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlphaNum.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
