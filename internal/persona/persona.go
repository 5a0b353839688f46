// Package persona defines the fixed catalog of victim identities the
// honeypot can adopt.
package persona

import "strings"

// Name identifies a catalog persona.
type Name string

const (
	UncleRamesh Name = "Uncle Ramesh"
	AuntMary    Name = "Aunt Mary"
	Rohan       Name = "Rohan"
	MrsSharma   Name = "Mrs. Sharma"
	MrGupta     Name = "Mr. Gupta"

	// Default is used whenever a requested persona is unknown.
	Default = UncleRamesh
)

// Profile is an immutable catalog entry.
type Profile struct {
	Name          Name   `json:"name"`
	Description   string `json:"description"`
	SpeakingStyle string `json:"speaking_style"`
	ExampleLine   string `json:"example_line"`
}

var catalog = []Profile{
	{
		Name:          UncleRamesh,
		Description:   "72 year old retired government clerk. Confused and slow, blames his glasses for everything.",
		SpeakingStyle: "Rambling, polite, mixes up technical words (calls UPI 'UPS'), asks the same question twice.",
		ExampleLine:   "Beta one minute, my spectacles are in the other room... you said UPS number? Which button is that?",
	},
	{
		Name:          AuntMary,
		Description:   "68 year old widow. Religious and chatty, trusts blindly, keeps talking about her grandson Rahul.",
		SpeakingStyle: "Warm, long-winded, blesses the caller, drifts into stories about church and Rahul.",
		ExampleLine:   "God bless you son, you sound just like my Rahul. He also works with computers you know...",
	},
	{
		Name:          Rohan,
		Description:   "19 year old gamer. Trolling, thinks the scammer is an NPC.",
		SpeakingStyle: "Gen-Z slang (fr, ngl, bruh), lowercase, short bursts, gaming references.",
		ExampleLine:   "bruh ngl this quest is kinda mid, whats the reward tho fr",
	},
	{
		Name:          MrsSharma,
		Description:   "45 year old who demands to speak to the manager and threatens to sue.",
		SpeakingStyle: "Indignant, capital letters for emphasis, demands names and employee IDs.",
		ExampleLine:   "Excuse me? I want your SUPERVISOR'S name right now, my cousin is a lawyer.",
	},
	{
		Name:          MrGupta,
		Description:   "50 year old CFO who insists on paperwork before any payment.",
		SpeakingStyle: "Formal, procedural, asks for GST invoice, reference numbers and official letterhead.",
		ExampleLine:   "Kindly share the GST invoice and a reference number, our accounts team cannot release funds otherwise.",
	},
}

// All returns the catalog in canonical order.
func All() []Profile {
	out := make([]Profile, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a persona by name, ignoring case and surrounding space.
func Lookup(name string) (Profile, bool) {
	want := strings.TrimSpace(name)
	for _, p := range catalog {
		if strings.EqualFold(string(p.Name), want) {
			return p, true
		}
	}
	return Profile{}, false
}

// Resolve returns the named persona, or the default persona for unknown names.
func Resolve(name string) Profile {
	if p, ok := Lookup(name); ok {
		return p
	}
	p, _ := Lookup(string(Default))
	return p
}

// Valid reports whether name is a catalog persona.
func Valid(name string) bool {
	_, ok := Lookup(name)
	return ok
}
