// Package procref extracts customs process references (e.g. "DMD.0083/25")
// from free-text bank statement descriptions.
package procref

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// The three shapes a process reference takes inside statement text, most
// specific first. First match wins; there is no backtracking across
// patterns once one matches.
var (
	// Full form: 2-4 letters, optional separator, 4 digits, 2-digit year.
	fullPattern = regexp.MustCompile(`([A-Z]{2,4})[.\s]?(\d{4})/(\d{2})`)

	// Separated form without a year: "DMD 0083", "DMD.0083".
	separatedPattern = regexp.MustCompile(`([A-Z]{2,4})[.\s](\d{4})`)

	// Compact form: letters immediately followed by digits, "BND0093".
	compactPattern = regexp.MustCompile(`([A-Z]{2,4})(\d{4})`)
)

// Extract scans a statement description for a process reference and returns
// it normalized to LETTERS.NNNN/YY. Shapes without a year default to the
// current two-digit year.
//
// Pure and total: any input yields either a reference or ok=false, never an
// error.
func Extract(description string) (string, bool) {
	return extractAt(description, time.Now())
}

// extractAt is Extract with an injectable clock for the year default
func extractAt(description string, now time.Time) (string, bool) {
	text := strings.ToUpper(description)

	if m := fullPattern.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s.%s/%s", m[1], m[2], m[3]), true
	}

	year := now.Format("06")

	if m := separatedPattern.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s.%s/%s", m[1], m[2], year), true
	}

	if m := compactPattern.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s.%s/%s", m[1], m[2], year), true
	}

	return "", false
}
