package policy

import (
	"strings"

	"golang.org/x/text/cases"
)

// Bitrate bounds in kbit/s. Effective bitrates are always clamped into
// this range regardless of configuration or genre boost.
const (
	BitrateMin = 96
	BitrateMax = 256
)

// family groups genres that share a boost delta. Complex material gets a
// larger delta; the order here decides precedence when a genre string
// matches more than one family.
type family struct {
	name    string
	delta   int
	matches []string
}

var families = []family{
	{name: "classical", delta: 48, matches: []string{
		"classical", "orchestral", "opera", "baroque", "symphony", "chamber",
	}},
	{name: "electronic", delta: 32, matches: []string{
		"electronic", "edm", "techno", "house", "trance", "dubstep",
		"drum and bass", "dnb", "idm",
	}},
	{name: "metal", delta: 32, matches: []string{"metal"}},
	{name: "jazz", delta: 24, matches: []string{
		"jazz", "bebop", "swing", "fusion",
	}},
}

// Decision records how the effective bitrate for one job was chosen.
type Decision struct {
	Nominal   int
	Effective int
	Genre     string
	Family    string
	Delta     int
}

// Boosted reports whether the genre raised the effective bitrate above
// the nominal setting.
func (d Decision) Boosted() bool {
	return d.Effective > d.Nominal
}

// Policy derives per-job effective bitrates from a nominal bitrate and the
// source genre. It is pure: the same inputs always yield the same decision.
type Policy struct {
	nominal int
	boost   bool
}

// New builds a policy around a nominal bitrate. The nominal value itself is
// clamped so a policy can never be constructed outside the valid range.
func New(nominal int, genreBoost bool) Policy {
	return Policy{
		nominal: clamp(nominal),
		boost:   genreBoost,
	}
}

// Nominal returns the clamped base bitrate.
func (p Policy) Nominal() int {
	return p.nominal
}

// Decide computes the effective bitrate for a track with the given genre.
// An empty or unrecognized genre, or a disabled boost, keeps the nominal
// bitrate. Recognized genres add their family delta, clamped to the valid
// range.
func (p Policy) Decide(genre string) Decision {
	decision := Decision{
		Nominal:   p.nominal,
		Effective: p.nominal,
		Genre:     genre,
	}
	if !p.boost {
		return decision
	}

	// A Caser may carry state, so each call folds with its own.
	folded := cases.Fold().String(strings.TrimSpace(genre))
	if folded == "" {
		return decision
	}

	for _, fam := range families {
		if matchesFamily(folded, fam) {
			decision.Family = fam.name
			decision.Delta = fam.delta
			decision.Effective = clamp(p.nominal + fam.delta)
			return decision
		}
	}
	return decision
}

// matchesFamily reports whether a case-folded genre string belongs to a
// family, by whole-string alias or substring match.
func matchesFamily(folded string, fam family) bool {
	for _, alias := range fam.matches {
		if folded == alias || strings.Contains(folded, alias) {
			return true
		}
	}
	return false
}

func clamp(bitrate int) int {
	if bitrate < BitrateMin {
		return BitrateMin
	}
	if bitrate > BitrateMax {
		return BitrateMax
	}
	return bitrate
}
