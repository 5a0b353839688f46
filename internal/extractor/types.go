package extractor

// Result holds the payment identifiers found in one block of text.
// Each slice is a set: duplicates are collapsed, first-seen order kept.
type Result struct {
	UPIIDs        []string `json:"upi_ids"`
	BankNumbers   []string `json:"bank_numbers"`
	PhishingLinks []string `json:"phishing_links"`
}

// Empty reports whether nothing was extracted.
func (r Result) Empty() bool {
	return len(r.UPIIDs) == 0 && len(r.BankNumbers) == 0 && len(r.PhishingLinks) == 0
}

// HasPayment reports whether a UPI handle or bank number was found.
func (r Result) HasPayment() bool {
	return len(r.UPIIDs) > 0 || len(r.BankNumbers) > 0
}

// Merge returns the set union of r and other.
func (r Result) Merge(other Result) Result {
	return Result{
		UPIIDs:        Union(r.UPIIDs, other.UPIIDs),
		BankNumbers:   Union(r.BankNumbers, other.BankNumbers),
		PhishingLinks: Union(r.PhishingLinks, other.PhishingLinks),
	}
}

// Without returns the identifiers of r that do not appear in seen.
func (r Result) Without(seen Result) Result {
	return Result{
		UPIIDs:        difference(r.UPIIDs, seen.UPIIDs),
		BankNumbers:   difference(r.BankNumbers, seen.BankNumbers),
		PhishingLinks: difference(r.PhishingLinks, seen.PhishingLinks),
	}
}

func difference(set, seen []string) []string {
	skip := make(map[string]struct{}, len(seen))
	for _, s := range seen {
		skip[s] = struct{}{}
	}
	out := []string{}
	for _, s := range set {
		if _, ok := skip[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// Union merges string sets, keeping first-seen order. It never returns nil.
func Union(sets ...[]string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, set := range sets {
		for _, s := range set {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
