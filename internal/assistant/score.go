package assistant

import (
	"strings"

	"github.com/wolfman30/crm-assistant/internal/records"
)

// MatchThreshold is the minimum score for a candidate to count as found.
const MatchThreshold = 3

// Candidate is a store record annotated with its match score.
type Candidate struct {
	Record records.Record
	Score  int
}

type scoreWeights struct {
	fullName  int
	firstName int
	lastName  int
	email     int
	company   int
	initials  int
}

var scoreTable = map[records.Entity]scoreWeights{
	records.EntityLead:    {fullName: 6, firstName: 3, lastName: 3, email: 2, company: 1, initials: 1},
	records.EntityContact: {fullName: 5, firstName: 2, lastName: 2, email: 3, initials: 1},
}

// Score sums the weights of every record field contained in the normalized prompt.
// Entities other than Lead and Contact always score 0.
func Score(norm string, r records.Record) int {
	w, ok := scoreTable[r.Entity]
	if !ok {
		return 0
	}
	first := Normalize(r.FirstName)
	last := Normalize(r.LastName)
	score := 0
	if first != "" && last != "" && strings.Contains(norm, first+" "+last) {
		score += w.fullName
	}
	if first != "" && strings.Contains(norm, first) {
		score += w.firstName
	}
	if last != "" && strings.Contains(norm, last) {
		score += w.lastName
	}
	if email := Normalize(r.Email); email != "" && strings.Contains(norm, email) {
		score += w.email
	}
	if company := Normalize(r.Company); w.company > 0 && company != "" && strings.Contains(norm, company) {
		score += w.company
	}
	if first != "" && last != "" && strings.Contains(norm, first+" "+last[:1]+".") {
		score += w.initials
	}
	return score
}

// BestMatch returns the highest scoring record. Equal scores resolve to the lowest
// record ID so the result does not depend on store ordering. ok is false when no
// record reaches MatchThreshold.
func BestMatch(norm string, recs []records.Record) (Candidate, bool) {
	var best Candidate
	found := false
	for _, r := range recs {
		s := Score(norm, r)
		if !found || s > best.Score || (s == best.Score && r.ID < best.Record.ID) {
			best = Candidate{Record: r, Score: s}
			found = true
		}
	}
	if !found || best.Score < MatchThreshold {
		return Candidate{}, false
	}
	return best, true
}
