package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crdtsync/decsync/model"
)

func TestTieBreakPicksLatestDatetime(t *testing.T) {
	cands := []Candidate{
		{AppID: "b", Entry: model.Entry{Datetime: "2024-01-01T00:00:00Z", Value: "old"}},
		{AppID: "a", Entry: model.Entry{Datetime: "2024-01-02T00:00:00Z", Value: "new"}},
	}

	got := TieBreak(cands, "b")
	assert.Equal(t, "new", got.Entry.Value)
}

func TestTieBreakPrefersOwnAppOnTie(t *testing.T) {
	cands := []Candidate{
		{AppID: "peer", Entry: model.Entry{Datetime: "2024-01-01T00:00:00Z", Value: "peer-value"}},
		{AppID: "own", Entry: model.Entry{Datetime: "2024-01-01T00:00:00Z", Value: "own-value"}},
	}

	got := TieBreak(cands, "own")
	assert.Equal(t, "own-value", got.Entry.Value)
}

func TestTieBreakFallsBackToLexicographicAppID(t *testing.T) {
	cands := []Candidate{
		{AppID: "zebra", Entry: model.Entry{Datetime: "2024-01-01T00:00:00Z", Value: "z"}},
		{AppID: "alpha", Entry: model.Entry{Datetime: "2024-01-01T00:00:00Z", Value: "a"}},
	}

	got := TieBreak(cands, "neither-app")
	assert.Equal(t, "a", got.Entry.Value)
}
