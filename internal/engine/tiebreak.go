package engine

import "github.com/crdtsync/decsync/model"

// Candidate is one writer's claim on a (path, key) cell: the entry it
// wrote, plus which appId wrote it. TieBreak picks the effective value
// among a set of Candidates for the same key (design note 9, "Open
// question — tie-breaking").
type Candidate struct {
	AppID string
	Entry model.Entry
}

// TieBreak returns the candidate that should win: the one with the
// lexicographically greatest Entry.Datetime; ties are broken in favor of
// ownAppID if it is among the tied candidates, otherwise by ascending
// lexicographic AppID. cands must be non-empty.
func TieBreak(cands []Candidate, ownAppID string) Candidate {
	best := cands[0]

	for _, c := range cands[1:] {
		switch {
		case c.Entry.Datetime > best.Entry.Datetime:
			best = c
		case c.Entry.Datetime == best.Entry.Datetime:
			best = preferTied(best, c, ownAppID)
		}
	}

	return best
}

// preferTied resolves a datetime tie between a and b.
func preferTied(a, b Candidate, ownAppID string) Candidate {
	if a.AppID == ownAppID {
		return a
	}

	if b.AppID == ownAppID {
		return b
	}

	if a.AppID <= b.AppID {
		return a
	}

	return b
}
