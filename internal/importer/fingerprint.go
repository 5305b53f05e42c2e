package importer

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize concatenates a parsed card's identity after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings so formatting
// edits in the source file do not produce a new card on re-scan.
func Normalize(card ParsedCard) string {
	clean := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	// Joined with newlines so adjacent fields cannot run together and
	// collide with a different card.
	return strings.Join([]string{
		string(card.Category),
		clean(card.Text),
		clean(card.Answer),
	}, "\n")
}

// Fingerprint normalizes a parsed card and returns its SHA-256 as a hex
// string. Tags and priority are deliberately excluded: retagging or
// reprioritizing a block edits the existing card rather than minting one.
func Fingerprint(card ParsedCard) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return fmt.Sprintf("%x", sum)
}
