// Package extractor pulls payment identifiers out of scammer messages with
// fixed patterns. It never calls a model, so it keeps working when text
// generation fails.
package extractor

import (
	"regexp"
	"strings"
)

var (
	// handle@provider, e.g. boss@scam or first.last-01@okaxis
	upiPattern = regexp.MustCompile(`[\w.\-]+@\w+`)
	// standalone 9-18 digit runs
	bankPattern = regexp.MustCompile(`\b\d{9,18}\b`)
	linkPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)
)

const linkTrailingPunct = ".,;:!?)]"

// Extract scans text for UPI handles, bank account numbers and links.
// The extractors run independently; a digit run that is also the handle
// part of a UPI ID is reported in both sets.
func Extract(text string) Result {
	if text == "" {
		return Result{UPIIDs: []string{}, BankNumbers: []string{}, PhishingLinks: []string{}}
	}

	links := linkPattern.FindAllString(text, -1)
	for i, l := range links {
		links[i] = strings.TrimRight(l, linkTrailingPunct)
	}

	return Result{
		UPIIDs:        Union(upiPattern.FindAllString(text, -1)),
		BankNumbers:   Union(bankPattern.FindAllString(text, -1)),
		PhishingLinks: Union(links),
	}
}
