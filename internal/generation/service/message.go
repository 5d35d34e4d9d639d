package service

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxMessageLength bounds user-visible failure text, in runes
	MaxMessageLength = 300
	truncationSuffix = "..."
)

// TruncateMessage shortens msg to MaxMessageLength runes plus a suffix
func TruncateMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	if utf8.RuneCountInString(msg) <= MaxMessageLength {
		return msg
	}
	runes := []rune(msg)
	return strings.TrimRight(string(runes[:MaxMessageLength]), " ") + truncationSuffix
}

// failureSummary builds the single message reported for a batch
func failureSummary(failed, requested int, first error) string {
	if requested == 1 {
		return TruncateMessage(fmt.Sprintf("generation failed: %v", first))
	}
	return TruncateMessage(fmt.Sprintf("%d of %d generations failed: %v", failed, requested, first))
}
