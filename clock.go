package decsync

import "time"

// datetimeLayout is RFC 3339 with a fixed nine-digit fraction, so that two
// timestamps produced here compare lexicographically in time order (the
// trailing-zero trimming of time.RFC3339Nano would break that).
const datetimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// currentDatetime returns an ISO-8601 UTC timestamp whose first ten
// characters form a YYYY-MM-DD date, suitable both as an Entry.Datetime
// (lexicographically comparable) and as the source of last-active dates.
func currentDatetime() string {
	return time.Now().UTC().Format(datetimeLayout)
}

// defaultLegacyWindow is how far back "recently active" looks when deciding
// whether a peer advertising an old supportedVersion still blocks an
// automatic .decsync-info version bump (SPEC_FULL §4.7). Three months
// mirrors the upstream library's rationale: a peer silent longer than that
// is assumed retired, not merely offline.
const defaultLegacyWindow = 3 // months

// oldDatetime returns the "recently active" threshold: a peer whose
// last-active date is at or after this value counts as still around.
func oldDatetime(months int) string {
	return time.Now().UTC().AddDate(0, -months, 0).Format(datetimeLayout)
}
