package decsync_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crdtsync/decsync"
)

func TestGenerateAppID_DeterministicWithoutRandom(t *testing.T) {
	assert.Equal(t, "laptop-contacts", decsync.GenerateAppID("laptop", "contacts", false))
}

func TestGenerateAppID_RandomSuffixFormat(t *testing.T) {
	id := decsync.GenerateAppID("laptop", "contacts", true)
	assert.Regexp(t, `^laptop-contacts-\d{5}$`, id)
}

func TestGenerateAppID_RandomCallsAreLikelyDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		seen[decsync.GenerateAppID("laptop", "contacts", true)] = true
	}

	assert.Greater(t, len(seen), 1, "20 random suffixes should not all collide")
}
